package catalog

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/diewo77/go-quotes/internal/models"
)

// Stage is how far the system -> collection -> color chain has been filled.
type Stage int

const (
	NoSystem Stage = iota
	SystemChosen
	CollectionChosen
	ColorChosen
)

func (s Stage) String() string {
	switch s {
	case SystemChosen:
		return "system_chosen"
	case CollectionChosen:
		return "collection_chosen"
	case ColorChosen:
		return "color_chosen"
	default:
		return "no_system"
	}
}

var (
	// ErrSuperseded means a newer choice was made while the lookup ran; its
	// result was dropped.
	ErrSuperseded   = errors.New("selection superseded by a newer choice")
	ErrNoSystem     = errors.New("no system chosen")
	ErrNoCollection = errors.New("no collection chosen")
	ErrUnknownColor = errors.New("color is not offered for this selection")
)

// Lookup is what the selector needs from the catalog.
type Lookup interface {
	Collections(ctx context.Context, productID uint) ([]string, error)
	Colors(ctx context.Context, productID uint, collection string) ([]models.Fabric, error)
}

// State is a snapshot of the selection and the options offered at each level.
type State struct {
	Stage Stage

	ProductID   uint
	SystemType  string
	Collection  string
	FabricID    uint
	FabricColor string
	FabricCode  string

	Collections []string
	Colors      []models.Fabric

	// CollectionsErr and ColorsErr hold the last failed lookup for the
	// matching option list, shown inline next to the field.
	CollectionsErr error
	ColorsErr      error
}

// Selector drives the dependent selection. Every upstream choice clears the
// downstream values and options in the same update. Lookups run without the
// lock held; each carries a token and its result is applied only while that
// token is still the latest for its field.
type Selector struct {
	lookup Lookup

	mu              sync.Mutex
	state           State
	systemToken     uint64
	collectionToken uint64
}

func NewSelector(lookup Lookup) *Selector {
	return &Selector{lookup: lookup}
}

// State returns a copy of the current selection.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Collections = append([]string(nil), s.state.Collections...)
	st.Colors = append([]models.Fabric(nil), s.state.Colors...)
	return st
}

// ChooseSystem selects a product and loads its collections.
func (s *Selector) ChooseSystem(ctx context.Context, product models.Product) error {
	s.mu.Lock()
	s.systemToken++
	s.collectionToken++
	token := s.systemToken
	s.state = State{
		Stage:      SystemChosen,
		ProductID:  product.ID,
		SystemType: product.Code,
	}
	s.mu.Unlock()

	collections, err := s.lookup.Collections(ctx, product.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.systemToken {
		return ErrSuperseded
	}
	if err != nil {
		s.state.CollectionsErr = err
		return err
	}
	s.state.Collections = collections
	return nil
}

// ChooseCollection selects a collection of the chosen system and loads its colors.
func (s *Selector) ChooseCollection(ctx context.Context, collection string) error {
	s.mu.Lock()
	if s.state.Stage < SystemChosen {
		s.mu.Unlock()
		return ErrNoSystem
	}
	s.collectionToken++
	token, sysToken := s.collectionToken, s.systemToken
	productID := s.state.ProductID
	s.state.Stage = CollectionChosen
	s.state.Collection = collection
	s.state.FabricID = 0
	s.state.FabricColor = ""
	s.state.FabricCode = ""
	s.state.Colors = nil
	s.state.ColorsErr = nil
	if collection == "" {
		s.state.Stage = SystemChosen
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	colors, err := s.lookup.Colors(ctx, productID, collection)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.collectionToken || sysToken != s.systemToken {
		return ErrSuperseded
	}
	if err != nil {
		s.state.ColorsErr = err
		return err
	}
	s.state.Colors = colors
	return nil
}

// ChooseColor picks one of the offered fabrics and copies its color and code.
func (s *Selector) ChooseColor(fabricID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Stage < CollectionChosen {
		return ErrNoCollection
	}
	for _, f := range s.state.Colors {
		if f.ID == fabricID {
			s.state.Stage = ColorChosen
			s.state.FabricID = f.ID
			s.state.FabricColor = f.ColorName
			s.state.FabricCode = f.Code
			return nil
		}
	}
	return ErrUnknownColor
}

// Field names accepted by Replay as the field that just changed.
const (
	FieldSystem     = "system"
	FieldCollection = "collection"
	FieldColor      = "color"
)

// Request is a selection posted back by the item form.
type Request struct {
	ProductID  uint
	Collection string
	FabricID   uint
	// Changed names the field the user just edited; values below it are
	// discarded instead of replayed.
	Changed string
	// PreviousProductID is the system the form was rendered with. A
	// different ProductID means the system changed, whatever Changed says.
	PreviousProductID uint
}

// Replay rebuilds the selection from a posted form, one level at a time.
// Lookup failures are recorded on the returned state, not returned.
func Replay(ctx context.Context, svc *Service, req Request) State {
	sel := NewSelector(svc)
	if req.ProductID == 0 {
		return sel.State()
	}
	product, err := svc.Product(ctx, req.ProductID)
	if err != nil {
		st := sel.State()
		st.CollectionsErr = err
		return st
	}
	if req.PreviousProductID != 0 && req.PreviousProductID != req.ProductID {
		req.Changed = FieldSystem
	}
	if err := sel.ChooseSystem(ctx, product); err != nil || req.Changed == FieldSystem {
		return sel.State()
	}
	if req.Collection == "" || !slices.Contains(sel.State().Collections, req.Collection) {
		return sel.State()
	}
	if err := sel.ChooseCollection(ctx, req.Collection); err != nil || req.Changed == FieldCollection {
		return sel.State()
	}
	if req.FabricID != 0 {
		_ = sel.ChooseColor(req.FabricID)
	}
	return sel.State()
}
