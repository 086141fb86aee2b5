// Package app manages the address book. Addresses live locally under
// generated ids; the backend learns about one the first time checkout needs
// it, and the returned backend id is cached write-once for every later use.
package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dwikikusuma/storefront-sync/internal/address/domain"
)

type Repo interface {
	List() ([]domain.Address, error)
	Get(id string) (domain.Address, error)
	Save(a domain.Address) error
	SetBackendID(id, backendID string) error
	SetDefault(id string) error
	Delete(id string) error
}

// RemoteBook registers addresses with the backend.
type RemoteBook interface {
	Create(ctx context.Context, a domain.Address) (string, error)
}

type Service struct {
	repo   Repo
	remote RemoteBook
	log    *slog.Logger
}

func NewService(repo Repo, remote RemoteBook, log *slog.Logger) *Service {
	return &Service{repo: repo, remote: remote, log: log}
}

func (s *Service) List() ([]domain.Address, error) {
	return s.repo.List()
}

func (s *Service) Get(id string) (domain.Address, error) {
	return s.repo.Get(id)
}

// Add validates and stores a new address under a generated local id. The
// first address in the book becomes the default.
func (s *Service) Add(a domain.Address) (domain.Address, error) {
	if err := a.Validate(); err != nil {
		return domain.Address{}, err
	}

	a.ID = uuid.NewString()
	a.BackendID = ""

	existing, err := s.repo.List()
	if err != nil {
		return domain.Address{}, err
	}
	if len(existing) == 0 {
		a.IsDefault = true
	}

	if err := s.repo.Save(a); err != nil {
		return domain.Address{}, err
	}
	return a, nil
}

func (s *Service) SetDefault(id string) error {
	return s.repo.SetDefault(id)
}

func (s *Service) Remove(id string) error {
	return s.repo.Delete(id)
}

// Default returns the default address, or the first one when none is
// marked.
func (s *Service) Default() (domain.Address, bool) {
	addrs, err := s.repo.List()
	if err != nil || len(addrs) == 0 {
		return domain.Address{}, false
	}
	for _, a := range addrs {
		if a.IsDefault {
			return a, true
		}
	}
	return addrs[0], true
}

// EnsureBackendID promotes the address to the backend on first use and
// returns its backend id. An already promoted address is served from the
// cache without a remote call.
func (s *Service) EnsureBackendID(ctx context.Context, id string) (string, error) {
	a, err := s.repo.Get(id)
	if err != nil {
		return "", err
	}
	if a.Promoted() {
		return a.BackendID, nil
	}

	backendID, err := s.remote.Create(ctx, a)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetBackendID(id, backendID); err != nil {
		// The backend record exists; next checkout re-reads it rather than
		// losing the order over a local write failure.
		s.log.Warn("backend id not cached", slog.String("address", id), slog.Any("err", err))
	}
	s.log.Info("address promoted", slog.String("address", id), slog.String("backend_id", backendID))
	return backendID, nil
}
