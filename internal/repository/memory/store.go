// Package memory is an in-process store with the same contracts as the
// Postgres repositories. It backs tests and the memory:// DSN.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/model"
	"github.com/Freeeeeet/artist_scheduler/internal/repository"
)

// arena holds one artist's rows.
type arena struct {
	artist       *model.Artist
	availability map[int64]*model.Availability
	patterns     map[int64]*model.RecurringPattern
	blackouts    map[int64]*model.BlackoutDate
	templates    map[int64]*model.TimeSlotTemplate
	bookings     map[int64]*model.Booking
}

func newArena() *arena {
	return &arena{
		availability: make(map[int64]*model.Availability),
		patterns:     make(map[int64]*model.RecurringPattern),
		blackouts:    make(map[int64]*model.BlackoutDate),
		templates:    make(map[int64]*model.TimeSlotTemplate),
		bookings:     make(map[int64]*model.Booking),
	}
}

// Store keeps arenas keyed by artist id. Row ids are global.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	arenas map[int64]*arena
	now    func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		arenas: make(map[int64]*arena),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) arena(artistID int64) *arena {
	a, ok := s.arenas[artistID]
	if !ok {
		a = newArena()
		s.arenas[artistID] = a
	}
	return a
}

// find locates the arena owning a row id in the given table.
func find[T any](s *Store, id int64, table func(*arena) map[int64]*T) (*arena, *T) {
	for _, a := range s.arenas {
		if row, ok := table(a)[id]; ok {
			return a, row
		}
	}
	return nil, nil
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func values[T any](m map[int64]*T, keep func(*T) bool) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, clone(v))
		}
	}
	return out
}

// Ping satisfies readiness probes.
func (s *Store) Ping(context.Context) error { return nil }

// Artists and the other accessors return table views sharing the store's lock.
func (s *Store) Artists() *Artists { return &Artists{s} }
func (s *Store) Availability() *Availability { return &Availability{s} }
func (s *Store) Patterns() *Patterns { return &Patterns{s} }
func (s *Store) Blackouts() *Blackouts { return &Blackouts{s} }
func (s *Store) Templates() *Templates { return &Templates{s} }
func (s *Store) Bookings() *Bookings { return &Bookings{s} }

// Artists stores artist profiles.
type Artists struct{ s *Store }

func (r *Artists) Create(_ context.Context, artist *model.Artist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	artist.ID = r.s.id()
	artist.CreatedAt = r.s.now()
	r.s.arena(artist.ID).artist = clone(artist)
	return nil
}

func (r *Artists) GetByID(_ context.Context, id int64) (*model.Artist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if a, ok := r.s.arenas[id]; ok {
		return clone(a.artist), nil
	}
	return nil, nil
}

// Availability stores availability rows.
type Availability struct{ s *Store }

func availabilityTable(a *arena) map[int64]*model.Availability { return a.availability }

func (r *Availability) Create(_ context.Context, slot *model.Availability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a := r.s.arena(slot.ArtistID)
	for _, existing := range a.availability {
		if existing.StartTime.Equal(slot.StartTime) {
			return fmt.Errorf("create availability at %s: %w", slot.StartTime.Format(time.DateTime), repository.ErrDuplicate)
		}
		if slot.BookingID != nil && existing.BookingID != nil && *existing.BookingID == *slot.BookingID {
			return fmt.Errorf("create availability for booking %d: %w", *slot.BookingID, repository.ErrAlreadyBooked)
		}
	}

	slot.ID = r.s.id()
	slot.CreatedAt = r.s.now()
	slot.UpdatedAt = slot.CreatedAt
	a.availability[slot.ID] = clone(slot)
	return nil
}

func (r *Availability) GetByID(_ context.Context, id int64) (*model.Availability, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, row := find(r.s, id, availabilityTable)
	return clone(row), nil
}

func (r *Availability) GetByStart(_ context.Context, artistID int64, start time.Time) (*model.Availability, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if a, ok := r.s.arenas[artistID]; ok {
		for _, row := range a.availability {
			if row.StartTime.Equal(start) {
				return clone(row), nil
			}
		}
	}
	return nil, nil
}

func (r *Availability) GetByArtistRange(_ context.Context, artistID int64, from, to time.Time) ([]*model.Availability, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.arenas[artistID]
	if !ok {
		return nil, nil
	}
	out := values(a.availability, func(row *model.Availability) bool {
		return !row.Date.Before(from) && !row.Date.After(to)
	})
	slices.SortFunc(out, func(x, y *model.Availability) int { return x.StartTime.Compare(y.StartTime) })
	return out, nil
}

func (r *Availability) Update(_ context.Context, slot *model.Availability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, row := find(r.s, slot.ID, availabilityTable)
	if row == nil || row.IsBooked {
		return fmt.Errorf("update availability %d: %w", slot.ID, repository.ErrAlreadyBooked)
	}
	row.EndTime = slot.EndTime
	row.Status = slot.Status
	row.PriceMultiplier = slot.PriceMultiplier
	row.MinimumHours = slot.MinimumHours
	row.BufferBeforeMinutes = slot.BufferBeforeMinutes
	row.BufferAfterMinutes = slot.BufferAfterMinutes
	row.Notes = slot.Notes
	row.Requirements = slot.Requirements
	row.TemplateID = slot.TemplateID
	row.BatchID = slot.BatchID
	row.UpdatedAt = r.s.now()
	slot.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Availability) UpdateStatus(_ context.Context, id int64, status model.AvailabilityStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, row := find(r.s, id, availabilityTable)
	if row == nil {
		return fmt.Errorf("update availability status %d: %w", id, repository.ErrNotFound)
	}
	row.Status = status
	row.UpdatedAt = r.s.now()
	return nil
}

// Book claims an open row for the booking.
func (r *Availability) Book(_ context.Context, id, bookingID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, row := find(r.s, id, availabilityTable)
	if row == nil || row.IsBooked || row.Status != model.AvailabilityStatusAvailable {
		return fmt.Errorf("book availability %d: %w", id, repository.ErrAlreadyBooked)
	}
	for _, other := range a.availability {
		if other.BookingID != nil && *other.BookingID == bookingID {
			return fmt.Errorf("book availability %d: %w", id, repository.ErrAlreadyBooked)
		}
	}
	row.IsBooked = true
	row.BookingID = &bookingID
	row.UpdatedAt = r.s.now()
	return nil
}

func (r *Availability) ReleaseByBooking(_ context.Context, artistID, bookingID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.arenas[artistID]
	if !ok {
		return 0, nil
	}
	var n int64
	for _, row := range a.availability {
		if row.BookingID != nil && *row.BookingID == bookingID {
			row.IsBooked = false
			row.BookingID = nil
			row.UpdatedAt = r.s.now()
			n++
		}
	}
	return n, nil
}

func (r *Availability) ListBookedIDsByPattern(_ context.Context, patternID int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []int64
	for _, a := range r.s.arenas {
		for _, row := range a.availability {
			if row.IsBooked && fromPattern(row, patternID) {
				ids = append(ids, row.ID)
			}
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func fromPattern(row *model.Availability, patternID int64) bool {
	return row.PatternID != nil && *row.PatternID == patternID
}

// closeSlots flips the arena's open rows dated within [from, to].
func (s *Store) closeSlots(a *arena, from, to time.Time, notes string) int64 {
	var n int64
	for _, row := range a.availability {
		if row.Date.Before(from) || row.Date.After(to) || !row.IsBookable() {
			continue
		}
		row.Status = model.AvailabilityStatusUnavailable
		row.Notes = notes
		row.UpdatedAt = s.now()
		n++
	}
	return n
}

// pruneOccurrences drops the arena's unbooked rows materialized from the pattern.
func pruneOccurrences(a *arena, patternID int64) int64 {
	var n int64
	for id, row := range a.availability {
		if !row.IsBooked && fromPattern(row, patternID) {
			delete(a.availability, id)
			n++
		}
	}
	return n
}

func (r *Availability) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, row := find(r.s, id, availabilityTable)
	if row == nil || row.IsBooked {
		return fmt.Errorf("delete availability %d: %w", id, repository.ErrAlreadyBooked)
	}
	delete(a.availability, id)
	return nil
}

// Patterns stores recurring patterns.
type Patterns struct{ s *Store }

func patternTable(a *arena) map[int64]*model.RecurringPattern { return a.patterns }

func sortPatterns(ps []*model.RecurringPattern) []*model.RecurringPattern {
	slices.SortFunc(ps, func(x, y *model.RecurringPattern) int {
		return cmp.Or(cmp.Compare(x.ArtistID, y.ArtistID), cmp.Compare(x.ID, y.ID))
	})
	return ps
}

func (r *Patterns) CreateGroup(_ context.Context, patterns []*model.RecurringPattern) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for _, p := range patterns {
		p.ID = r.s.id()
		p.CreatedAt = now
		p.UpdatedAt = now
		r.s.arena(p.ArtistID).patterns[p.ID] = clone(p)
	}
	return nil
}

func (r *Patterns) GetByID(_ context.Context, id int64) (*model.RecurringPattern, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, row := find(r.s, id, patternTable)
	return clone(row), nil
}

func (r *Patterns) GetByArtistID(_ context.Context, artistID int64) ([]*model.RecurringPattern, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if a, ok := r.s.arenas[artistID]; ok {
		return sortPatterns(values(a.patterns, nil)), nil
	}
	return nil, nil
}

func (r *Patterns) GetActiveByArtistID(_ context.Context, artistID int64) ([]*model.RecurringPattern, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if a, ok := r.s.arenas[artistID]; ok {
		return sortPatterns(values(a.patterns, func(p *model.RecurringPattern) bool { return p.IsActive })), nil
	}
	return nil, nil
}

func (r *Patterns) GetAllActive(_ context.Context) ([]*model.RecurringPattern, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.RecurringPattern
	for _, a := range r.s.arenas {
		out = append(out, values(a.patterns, func(p *model.RecurringPattern) bool { return p.IsActive })...)
	}
	return sortPatterns(out), nil
}

// SetActive toggles the pattern and prunes its open rows on deactivation.
func (r *Patterns) SetActive(_ context.Context, id int64, active bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, row := find(r.s, id, patternTable)
	if row == nil {
		return 0, fmt.Errorf("set recurring pattern active %d: %w", id, repository.ErrNotFound)
	}
	row.IsActive = active
	row.UpdatedAt = r.s.now()
	if active {
		return 0, nil
	}
	return pruneOccurrences(a, id), nil
}

// Delete refuses while a booked row references the pattern.
func (r *Patterns) Delete(_ context.Context, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, row := find(r.s, id, patternTable)
	if row == nil {
		return 0, fmt.Errorf("delete recurring pattern %d: %w", id, repository.ErrNotFound)
	}
	for _, slot := range a.availability {
		if slot.IsBooked && fromPattern(slot, id) {
			return 0, fmt.Errorf("delete recurring pattern %d: %w", id, repository.ErrAlreadyBooked)
		}
	}
	pruned := pruneOccurrences(a, id)
	delete(a.patterns, id)
	return pruned, nil
}

// Blackouts stores blackout ranges.
type Blackouts struct{ s *Store }

func blackoutTable(a *arena) map[int64]*model.BlackoutDate { return a.blackouts }

// Create stores b and closes the open rows it covers under one lock.
func (r *Blackouts) Create(_ context.Context, b *model.BlackoutDate, notes string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a := r.s.arena(b.ArtistID)
	b.ID = r.s.id()
	b.CreatedAt = r.s.now()
	a.blackouts[b.ID] = clone(b)
	return r.s.closeSlots(a, b.StartDate, b.EndDate, notes), nil
}

func (r *Blackouts) GetByID(_ context.Context, id int64) (*model.BlackoutDate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, row := find(r.s, id, blackoutTable)
	return clone(row), nil
}

func (r *Blackouts) GetByArtistID(_ context.Context, artistID int64) ([]*model.BlackoutDate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.arenas[artistID]
	if !ok {
		return nil, nil
	}
	out := values(a.blackouts, nil)
	slices.SortFunc(out, func(x, y *model.BlackoutDate) int {
		return cmp.Or(x.StartDate.Compare(y.StartDate), cmp.Compare(x.ID, y.ID))
	})
	return out, nil
}

func (r *Blackouts) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, row := find(r.s, id, blackoutTable)
	if row == nil {
		return fmt.Errorf("delete blackout %d: %w", id, repository.ErrNotFound)
	}
	delete(a.blackouts, id)
	return nil
}

// Templates stores slot templates.
type Templates struct{ s *Store }

func templateTable(a *arena) map[int64]*model.TimeSlotTemplate { return a.templates }

func (r *Templates) Create(_ context.Context, t *model.TimeSlotTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a := r.s.arena(t.ArtistID)
	for _, other := range a.templates {
		if other.Name == t.Name {
			return fmt.Errorf("create template %q: %w", t.Name, repository.ErrDuplicate)
		}
	}
	now := r.s.now()
	if t.IsDefault {
		for _, other := range a.templates {
			if other.IsDefault {
				other.IsDefault = false
				other.UpdatedAt = now
			}
		}
	}
	t.ID = r.s.id()
	t.CreatedAt = now
	t.UpdatedAt = now
	a.templates[t.ID] = clone(t)
	return nil
}

func (r *Templates) GetByID(_ context.Context, id int64) (*model.TimeSlotTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, row := find(r.s, id, templateTable)
	return clone(row), nil
}

func (r *Templates) GetByArtistID(_ context.Context, artistID int64) ([]*model.TimeSlotTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.arenas[artistID]
	if !ok {
		return nil, nil
	}
	out := values(a.templates, nil)
	slices.SortFunc(out, func(x, y *model.TimeSlotTemplate) int {
		if x.IsDefault != y.IsDefault {
			if x.IsDefault {
				return -1
			}
			return 1
		}
		return cmp.Compare(x.Name, y.Name)
	})
	return out, nil
}

func (r *Templates) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, row := find(r.s, id, templateTable)
	if row == nil {
		return fmt.Errorf("delete template %d: %w", id, repository.ErrNotFound)
	}
	delete(a.templates, id)
	return nil
}

// Bookings mirrors the externally owned bookings table. Put seeds it.
type Bookings struct{ s *Store }

// Put stores b, assigning an id when it has none.
func (r *Bookings) Put(b *model.Booking) *model.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if b.ID == 0 {
		b.ID = r.s.id()
	}
	r.s.arena(b.ArtistID).bookings[b.ID] = clone(b)
	return b
}

func (r *Bookings) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, row := find(r.s, id, func(a *arena) map[int64]*model.Booking { return a.bookings })
	return clone(row), nil
}

// ListOverlapping returns bookings in statuses that intersect [from, to).
func (r *Bookings) ListOverlapping(_ context.Context, artistID int64, from, to time.Time, statuses []model.BookingStatus) ([]*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.arenas[artistID]
	if !ok {
		return nil, nil
	}
	out := values(a.bookings, func(b *model.Booking) bool {
		return b.StartTime.Before(to) && b.EndTime.After(from) && slices.Contains(statuses, b.Status)
	})
	slices.SortFunc(out, func(x, y *model.Booking) int { return x.StartTime.Compare(y.StartTime) })
	return out, nil
}
