package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/fjod/go_cart/menu/internal/kv"
	"github.com/fjod/go_cart/menu/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTerminal     = "default"
	DefaultMaxTerminals = 256
	DefaultLineQuantity = 99
)

var terminalIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Terminal is one ordering device with its own cart and checkout.
type Terminal struct {
	ID       string
	Cart     *CartStore
	Checkout *CheckoutService
}

type TerminalConfig struct {
	Store     kv.Store
	Submitter OrderSubmitter
	Checkout  CheckoutOptions
	Logger    *zap.Logger
	Metrics   *Metrics
	// MaxTerminals bounds the registry. Zero means DefaultMaxTerminals.
	MaxTerminals int
	// MaxLineQuantity caps each cart line. Zero means DefaultLineQuantity,
	// a negative value disables the cap.
	MaxLineQuantity int
}

// Terminals lazily builds one Terminal per id, restoring its cart from storage.
type Terminals struct {
	cfg TerminalConfig
	log *zap.Logger

	mu        sync.RWMutex
	terminals map[string]*Terminal
	sfg       singleflight.Group
}

func NewTerminals(cfg TerminalConfig) *Terminals {
	if cfg.MaxTerminals <= 0 {
		cfg.MaxTerminals = DefaultMaxTerminals
	}
	switch {
	case cfg.MaxLineQuantity == 0:
		cfg.MaxLineQuantity = DefaultLineQuantity
	case cfg.MaxLineQuantity < 0:
		cfg.MaxLineQuantity = 0
	}
	return &Terminals{
		cfg:       cfg,
		log:       logger.OrNop(cfg.Logger),
		terminals: make(map[string]*Terminal),
	}
}

// Get returns the terminal for id, creating it on first use. Blank ids map to
// DefaultTerminal. Terminals are never dropped, so once MaxTerminals are open
// new ids get ErrTooManyTerminals.
func (t *Terminals) Get(ctx context.Context, id string) (*Terminal, error) {
	if id == "" {
		id = DefaultTerminal
	}
	if !terminalIDPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTerminal, id)
	}

	t.mu.RLock()
	term, ok := t.terminals[id]
	t.mu.RUnlock()
	if ok {
		return term, nil
	}

	// concurrent first requests for a terminal share one restore
	v, err, _ := t.sfg.Do(id, func() (interface{}, error) {
		t.mu.RLock()
		existing, ok := t.terminals[id]
		open := len(t.terminals)
		t.mu.RUnlock()
		if ok {
			return existing, nil
		}
		if open >= t.cfg.MaxTerminals {
			return nil, t.refuse(id)
		}

		log := t.log.With(zap.String("terminal", id))
		// a caller that gives up must not leave an empty cart behind for everyone else
		cart := NewCartStore(context.WithoutCancel(ctx), id, t.cfg.Store, log, t.cfg.Metrics)
		cart.maxQuantity = t.cfg.MaxLineQuantity
		created := &Terminal{
			ID:       id,
			Cart:     cart,
			Checkout: NewCheckoutService(cart, t.cfg.Submitter, t.cfg.Checkout, log, t.cfg.Metrics),
		}

		t.mu.Lock()
		if len(t.terminals) >= t.cfg.MaxTerminals {
			t.mu.Unlock()
			return nil, t.refuse(id)
		}
		t.terminals[id] = created
		t.mu.Unlock()
		log.Debug("terminal_opened")
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Terminal), nil
}

func (t *Terminals) refuse(id string) error {
	t.log.Warn("terminal_refused", zap.String("terminal", id), zap.Int("max_terminals", t.cfg.MaxTerminals))
	return fmt.Errorf("%w: limit is %d", ErrTooManyTerminals, t.cfg.MaxTerminals)
}
