// Package app holds the cart reconciler: one service that presents a single
// cart while routing every operation to the store that owns it. Guests work
// against the local database, authenticated sessions against the backend,
// and signing in merges the first into the second.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dwikikusuma/storefront-sync/internal/cart/domain"
	"github.com/dwikikusuma/storefront-sync/pkg/errs"
)

// defaultMergeWorkers bounds the sign-in merge fan-out.
const defaultMergeWorkers = 4

type Service struct {
	mu    sync.Mutex
	mode  domain.Mode
	items []domain.LineItem

	local  LocalStore
	remote RemoteCart
	log    *slog.Logger

	mergeWorkers int
}

// NewService starts in guest mode with whatever the local store holds.
func NewService(local LocalStore, remote RemoteCart, log *slog.Logger) *Service {
	return &Service{
		mode:         domain.ModeGuest,
		items:        local.Load(),
		local:        local,
		remote:       remote,
		log:          log,
		mergeWorkers: defaultMergeWorkers,
	}
}

func (s *Service) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Cart returns a snapshot of the current cart.
func (s *Service) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.LineItem, len(s.items))
	copy(items, s.items)
	return domain.Cart{Mode: s.mode, Items: items}
}

// Add puts item in the cart, summing quantities when the line already
// exists.
func (s *Service) Add(ctx context.Context, item domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == domain.ModeGuest {
		s.items = domain.Upsert(s.items, item)
		s.local.Save(s.items)
		return nil
	}

	added, err := s.remote.Add(ctx, item)
	if err != nil {
		return err
	}
	s.refreshRemote(ctx, added)
	return nil
}

// SetQty moves the line for sku to qty. Unknown SKUs are a validation
// error.
func (s *Service) SetQty(ctx context.Context, sku string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == domain.ModeGuest {
		items, ok := domain.SetQty(s.items, sku, qty)
		if !ok {
			return errs.New(errs.CategoryValidation, fmt.Sprintf("item %s not in cart", sku))
		}
		s.items = items
		s.local.Save(s.items)
		return nil
	}

	line, ok := domain.Cart{Items: s.items}.Find(sku)
	if !ok {
		return errs.New(errs.CategoryValidation, fmt.Sprintf("item %s not in cart", sku))
	}
	updated, err := s.remote.UpdateQty(ctx, line, qty)
	if err != nil {
		return err
	}
	s.refreshRemote(ctx, updated)
	return nil
}

// Remove drops the line for sku.
func (s *Service) Remove(ctx context.Context, sku string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == domain.ModeGuest {
		s.items = domain.Remove(s.items, sku)
		s.local.Save(s.items)
		return nil
	}

	if err := s.remote.Remove(ctx, sku); err != nil {
		return err
	}
	s.items = domain.Remove(s.items, sku)
	s.refreshRemote(ctx, domain.LineItem{})
	return nil
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == domain.ModeGuest {
		s.items = nil
		s.local.Save(nil)
		return nil
	}

	if err := s.remote.Clear(ctx); err != nil {
		return err
	}
	// Lines a partial merge left behind must not resurrect into the next
	// sign-in after the cart is gone.
	s.local.Save(nil)
	s.items = nil
	return nil
}

// Refresh re-reads the cart from its authoritative store.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == domain.ModeGuest {
		s.items = s.local.Load()
		return nil
	}

	items, err := s.remote.Fetch(ctx)
	if err != nil {
		if errs.Is(err, errs.CategoryAuthentication) {
			s.log.Warn("remote cart unauthorized, serving local cart", slog.Any("err", err))
			s.items = s.local.Load()
			return nil
		}
		return err
	}
	s.items = items
	return nil
}

// OnSignIn merges the guest cart into the remote one and switches the
// service to authenticated mode. The remote line wins on everything but
// quantity, which is summed and capped. Lines that merge are removed from
// local storage as they land, so a retry after partial failure pushes only
// what is still pending; a second call with an empty guest cart is a no-op.
func (s *Service) OnSignIn(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := domain.Normalize(s.local.Load())

	remote, err := s.remote.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("sign-in merge: %w", err)
	}
	remoteCart := domain.Cart{Items: remote}

	merged := make([]error, len(pending))
	var g errgroup.Group
	g.SetLimit(s.mergeWorkers)
	for i, line := range pending {
		g.Go(func() error {
			merged[i] = s.mergeLine(ctx, remoteCart, line)
			return nil
		})
	}
	g.Wait()

	var kept []domain.LineItem
	var firstErr error
	for i, line := range pending {
		if merged[i] == nil {
			continue
		}
		if firstErr == nil {
			firstErr = merged[i]
		}
		s.log.Warn("cart line not merged, keeping locally",
			slog.String("sku", line.SKU), slog.Any("err", merged[i]))
		kept = append(kept, line)
	}
	s.local.Save(kept)

	s.mode = domain.ModeAuthenticated
	s.refreshRemote(ctx, domain.LineItem{})

	if firstErr != nil {
		return fmt.Errorf("sign-in merge incomplete (%d of %d lines pending): %w",
			len(kept), len(pending), firstErr)
	}
	return nil
}

// OnSignOut returns the service to guest mode over the local cart.
func (s *Service) OnSignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = domain.ModeGuest
	s.items = s.local.Load()
}

func (s *Service) mergeLine(ctx context.Context, remote domain.Cart, line domain.LineItem) error {
	existing, ok := remote.Find(line.SKU)
	if !ok {
		_, err := s.remote.Add(ctx, line)
		return err
	}
	target := domain.ClampQty(existing.Qty + line.Qty)
	if target == existing.Qty {
		return nil
	}
	_, err := s.remote.UpdateQty(ctx, existing, target)
	return err
}

// refreshRemote re-reads authoritative state after a remote mutation. When
// the re-read itself fails the snapshot is patched with the line the
// mutation returned instead, so the caller still sees its own write.
func (s *Service) refreshRemote(ctx context.Context, fallback domain.LineItem) {
	items, err := s.remote.Fetch(ctx)
	if err != nil {
		s.log.Warn("cart refresh failed, patching snapshot", slog.Any("err", err))
		if fallback.SKU != "" {
			s.items = domain.Upsert(domain.Remove(s.items, fallback.SKU), fallback)
		}
		return
	}
	s.items = items
}
