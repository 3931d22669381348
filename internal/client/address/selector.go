package address

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownWard = errors.New("ward is not part of the selected province")

// Source is what the selector reads divisions from.
type Source interface {
	Provinces(ctx context.Context) ([]Province, error)
	Province(ctx context.Context, code int) (*Province, error)
}

// WardOption is a ward annotated with the district it belongs to.
type WardOption struct {
	Ward
	DistrictName string
}

// Label is the display text "ward - district".
func (w WardOption) Label() string {
	return w.Name + " - " + w.DistrictName
}

// Selection is the chosen address as the order form needs it.
type Selection struct {
	Province     string
	District     string
	Ward         string
	ProvinceCode int
	DistrictCode int
	WardCode     int
}

// Complete reports whether both province and ward are chosen.
func (s Selection) Complete() bool {
	return s.ProvinceCode != 0 && s.WardCode != 0
}

// Selector owns the province → ward cascade. Choosing a province loads its
// wards across all districts and resets the ward choice.
type Selector struct {
	source Source

	mu        sync.RWMutex
	provinces []Province
	province  *Province
	wards     []WardOption
	ward      *WardOption
	loading   bool
	seq       uint64
}

func NewSelector(source Source) *Selector {
	return &Selector{source: source}
}

// LoadProvinces fills the province list. On failure the list is empty.
func (s *Selector) LoadProvinces(ctx context.Context) ([]Province, error) {
	provinces, err := s.source.Provinces(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.provinces = nil
		return nil, fmt.Errorf("failed to load provinces: %w", err)
	}
	s.provinces = provinces
	return append([]Province(nil), provinces...), nil
}

// SelectProvince chooses a province and loads its wards. Code 0 clears the
// selection. On failure the province stays selected with no wards.
func (s *Selector) SelectProvince(ctx context.Context, code int) ([]WardOption, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.ward = nil
	s.wards = nil
	if code == 0 {
		s.province = nil
		s.loading = false
		s.mu.Unlock()
		return nil, nil
	}
	s.province = s.findProvince(code)
	s.loading = true
	s.mu.Unlock()

	details, err := s.source.Province(ctx, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		// superseded by a later selection
		return append([]WardOption(nil), s.wards...), nil
	}
	s.loading = false
	if err != nil {
		return nil, fmt.Errorf("failed to load wards: %w", err)
	}

	s.province = details
	s.wards = FlattenWards(details)
	return append([]WardOption(nil), s.wards...), nil
}

// SelectWard chooses a ward of the selected province.
func (s *Selector) SelectWard(code int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.wards {
		if s.wards[i].Code == code {
			w := s.wards[i]
			s.ward = &w
			return nil
		}
	}
	return ErrUnknownWard
}

// Selection returns the current choice.
func (s *Selector) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sel Selection
	if s.province != nil {
		sel.Province = s.province.Name
		sel.ProvinceCode = s.province.Code
	}
	if s.ward != nil {
		sel.Ward = s.ward.Name
		sel.WardCode = s.ward.Code
		sel.District = s.ward.DistrictName
		sel.DistrictCode = s.ward.DistrictCode
	}
	return sel
}

func (s *Selector) Provinces() []Province {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Province(nil), s.provinces...)
}

func (s *Selector) Wards() []WardOption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]WardOption(nil), s.wards...)
}

// Loading reports whether wards are being fetched.
func (s *Selector) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Selector) findProvince(code int) *Province {
	for i := range s.provinces {
		if s.provinces[i].Code == code {
			p := s.provinces[i]
			return &p
		}
	}
	return &Province{Code: code}
}

// FlattenWards lists every ward of a province in district order.
func FlattenWards(p *Province) []WardOption {
	if p == nil {
		return nil
	}
	var out []WardOption
	for _, d := range p.Districts {
		for _, w := range d.Wards {
			if w.DistrictCode == 0 {
				w.DistrictCode = d.Code
			}
			out = append(out, WardOption{Ward: w, DistrictName: d.Name})
		}
	}
	return out
}

// Ensure Client implements Source
var _ Source = (*Client)(nil)
