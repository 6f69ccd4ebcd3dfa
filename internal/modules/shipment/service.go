// README: Shipment service implements validated state transitions and persistence.
package shipment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"logishare/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("shipment not found")
	ErrConflict     = errors.New("shipment state conflict")
	ErrBadRequest   = errors.New("bad request")
)

// Store is the persistence contract; implemented by the Postgres store and
// by in-memory fakes in tests.
type Store interface {
	Create(ctx context.Context, s *Shipment) error
	Get(ctx context.Context, id types.ID) (*Shipment, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, vehicleID types.ID) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type CreateCommand struct {
	CarrierID    types.ID
	Origin       types.Point
	Destination  types.Point
	Cargo        string
	WeightKg     float64
	VolumeM3     float64
	Urgency      Urgency
	RequestedAt  time.Time
	Instructions string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.CarrierID == "" || cmd.WeightKg <= 0 || cmd.VolumeM3 < 0 {
		return "", ErrBadRequest
	}
	if !ValidUrgency(cmd.Urgency) {
		return "", ErrBadRequest
	}

	now := time.Now()
	requested := cmd.RequestedAt
	if requested.IsZero() {
		requested = now
	}
	sh := &Shipment{
		ID:            NewID(),
		CarrierID:     cmd.CarrierID,
		Origin:        cmd.Origin,
		Destination:   cmd.Destination,
		Cargo:         cmd.Cargo,
		WeightKg:      cmd.WeightKg,
		VolumeM3:      cmd.VolumeM3,
		Urgency:       cmd.Urgency,
		RequestedAt:   requested,
		Instructions:  cmd.Instructions,
		Status:        StatusPending,
		StatusVersion: 0,
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, sh); err != nil {
		return "", err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		ShipmentID: sh.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPending,
		ActorType:  "shipper",
		CreatedAt:  now,
	})
	return sh.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Shipment, error) {
	return s.store.Get(ctx, id)
}

// Transition moves a shipment from its current status to the requested one
// under optimistic concurrency. A lost race returns ErrConflict; an edge not
// in AllowedTransitions returns ErrInvalidState.
func (s *Service) Transition(ctx context.Context, id types.ID, to Status, actorType string, vehicleID types.ID) error {
	sh, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(sh.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, sh.ID, sh.Status, to, sh.StatusVersion, vehicleID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		ShipmentID: sh.ID,
		FromStatus: sh.Status,
		ToStatus:   to,
		ActorType:  actorType,
		CreatedAt:  time.Now(),
	})
	return nil
}

func NewID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
