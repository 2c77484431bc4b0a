package localcart

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/logging"
)

// CartKey is the storage name of guest carts.
const CartKey = "retech-cart"

// Store loads and saves guest carts.
type Store struct {
	storage Storage
	locks   *keyedMutex
	logger  *logrus.Entry
}

func NewStore(storage Storage, logger *logrus.Entry) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{storage: storage, locks: newKeyedMutex(), logger: logger}
}

// Load returns the guest's cart. A missing or unreadable entry yields an empty cart.
func (s *Store) Load(ctx context.Context, guestID string) (Cart, error) {
	data, err := s.storage.Get(ctx, cartKey(guestID))
	if errors.Is(err, ErrMiss) {
		return Cart{}, nil
	}
	if err != nil {
		return Cart{}, err
	}
	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		s.logger.WithError(err).WithField("guest_id", guestID).Warn("discarding unreadable guest cart")
		return Cart{}, nil
	}
	return cart, nil
}

func (s *Store) Save(ctx context.Context, guestID string, cart Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, cartKey(guestID), data)
}

// Update applies fn to the stored cart and saves the result. Calls for the
// same guest are serialized within this process.
func (s *Store) Update(ctx context.Context, guestID string, fn func(*Cart) error) (Cart, error) {
	unlock := s.locks.lock(guestID)
	defer unlock()

	cart, err := s.Load(ctx, guestID)
	if err != nil {
		return Cart{}, err
	}
	if err := fn(&cart); err != nil {
		return Cart{}, err
	}
	if err := s.Save(ctx, guestID, cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (s *Store) Clear(ctx context.Context, guestID string) error {
	unlock := s.locks.lock(guestID)
	defer unlock()
	return s.storage.Delete(ctx, cartKey(guestID))
}

func cartKey(guestID string) string {
	return CartKey + ":" + guestID
}

// keyedMutex stripes keys over a fixed set of mutexes.
type keyedMutex struct {
	stripes [64]sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{}
}

func (k *keyedMutex) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%uint32(len(k.stripes))]
	m.Lock()
	return m.Unlock
}
