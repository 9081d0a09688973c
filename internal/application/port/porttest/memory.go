// Package porttest provides in-memory implementations of the persistence ports
// for service and engine tests.
package porttest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/domain/entity"
)

// Store is a shared in-memory database. Each field implements one port.
type Store struct {
	mu       sync.Mutex
	requests map[string]*entity.TravelRequest
	logs     []*entity.AuditLog
	options  map[int64]*entity.TicketOption
	projects map[string]*entity.Project
	users    map[int64]*entity.User
	airlines map[string][]entity.AirlineSegment
	nextID   int64

	// AuditErr, when set, fails every audit append
	AuditErr error

	Requests *Requests
	Audit    *AuditLogs
	Options  *Options
	Projects *Projects
	Users    *Users
	Airlines *Airlines
	Tx       *Tx
}

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{
		requests: make(map[string]*entity.TravelRequest),
		options:  make(map[int64]*entity.TicketOption),
		projects: make(map[string]*entity.Project),
		users:    make(map[int64]*entity.User),
		airlines: make(map[string][]entity.AirlineSegment),
	}
	s.Requests = &Requests{s}
	s.Audit = &AuditLogs{s}
	s.Options = &Options{s}
	s.Projects = &Projects{s}
	s.Users = &Users{s}
	s.Airlines = &Airlines{s}
	s.Tx = &Tx{}
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddProject seeds a project
func (s *Store) AddProject(p *entity.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.projects[strings.ToUpper(p.ProjectCode)] = &cp
}

// AddUser seeds a user, assigning an id when missing
func (s *Store) AddUser(u *entity.User) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.UserID == 0 {
		u.UserID = s.id() + 1000
	}
	cp := *u
	s.users[u.UserID] = &cp
	return u
}

// AddRequest seeds a travel request
func (s *Store) AddRequest(r *entity.TravelRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.requests[r.RequestID] = &cp
}

// AddOption seeds a ticket option, assigning an id when missing
func (s *Store) AddOption(o *entity.TicketOption) *entity.TicketOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.OptionID == 0 {
		o.OptionID = s.id()
	}
	cp := *o
	s.options[o.OptionID] = &cp
	return o
}

// Request returns a copy of the stored request
func (s *Store) Request(requestID string) *entity.TravelRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

// Logs returns copies of the audit entries for a request
func (s *Store) Logs(requestID string) []*entity.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.AuditLog
	for _, l := range s.logs {
		if l.RequestID == requestID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out
}

// SelectedOptions lists the ids of selected options for a request
func (s *Store) SelectedOptions(requestID string) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int64
	for _, o := range s.options {
		if o.RequestID == requestID && o.IsSelected {
			out = append(out, o.OptionID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Requests implements port.TravelRequestRepository
type Requests struct{ s *Store }

func (r *Requests) Create(_ context.Context, req *entity.TravelRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.requests[req.RequestID]; exists {
		return fmt.Errorf("duplicate request id %s", req.RequestID)
	}
	cp := *req
	r.s.requests[req.RequestID] = &cp
	return nil
}

func (r *Requests) GetByID(_ context.Context, requestID string) (*entity.TravelRequest, error) {
	return r.s.Request(requestID), nil
}

func (r *Requests) Exists(_ context.Context, requestID string) (bool, error) {
	return r.s.Request(requestID) != nil, nil
}

func (r *Requests) ListByUser(_ context.Context, userID int64) ([]*entity.TravelRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.TravelRequest
	for _, req := range r.s.requests {
		if req.UserID == userID && req.IsActive {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out, nil
}

func (r *Requests) UpdateTripDetails(_ context.Context, req *entity.TravelRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.requests[req.RequestID]
	if !ok {
		return fmt.Errorf("request %s not found", req.RequestID)
	}
	cp := *req
	cp.CurrentStatusID = stored.CurrentStatusID
	cp.SelectedTicketOptionID = stored.SelectedTicketOptionID
	r.s.requests[req.RequestID] = &cp
	return nil
}

func (r *Requests) CompareAndSetStatus(_ context.Context, requestID string, from, to int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.requests[requestID]
	if !ok || stored.CurrentStatusID != from {
		return port.ErrStatusChanged
	}
	stored.CurrentStatusID = to
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Requests) SetSelectedOption(_ context.Context, requestID string, optionID *int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stored, ok := r.s.requests[requestID]; ok {
		stored.SelectedTicketOptionID = optionID
	}
	return nil
}

func (r *Requests) SaveFeedback(_ context.Context, requestID string, feedback string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stored, ok := r.s.requests[requestID]; ok {
		stored.TravelFeedback = feedback
	}
	return nil
}

func (r *Requests) SaveTicketDetails(_ context.Context, requestID string, d *entity.TicketDetails) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stored, ok := r.s.requests[requestID]; ok {
		agency, total := d.TravelAgencyExpense, d.TotalExpense
		stored.TravelAgencyName = d.TravelAgencyName
		stored.TravelAgencyExpense = &agency
		stored.TotalExpense = &total
		stored.TicketDocumentPath = d.TicketDocumentPath
	}
	return nil
}

// AuditLogs implements port.AuditLogRepository
type AuditLogs struct{ s *Store }

func (a *AuditLogs) Create(_ context.Context, log *entity.AuditLog) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if a.s.AuditErr != nil {
		return a.s.AuditErr
	}
	log.LogID = a.s.id()
	cp := *log
	a.s.logs = append(a.s.logs, &cp)
	return nil
}

func (a *AuditLogs) GetByID(_ context.Context, logID int64) (*entity.AuditLog, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	for _, l := range a.s.logs {
		if l.LogID == logID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (a *AuditLogs) ListByRequest(_ context.Context, requestID string) ([]*entity.AuditLog, error) {
	return a.s.Logs(requestID), nil
}

// Options implements port.TicketOptionRepository
type Options struct{ s *Store }

func (o *Options) Create(_ context.Context, option *entity.TicketOption) error {
	o.s.AddOption(option)
	return nil
}

func (o *Options) GetByID(_ context.Context, optionID int64) (*entity.TicketOption, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if opt, ok := o.s.options[optionID]; ok {
		cp := *opt
		return &cp, nil
	}
	return nil, nil
}

func (o *Options) ListByRequest(_ context.Context, requestID string) ([]*entity.TicketOption, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	var out []*entity.TicketOption
	for _, opt := range o.s.options {
		if opt.RequestID == requestID {
			cp := *opt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OptionID < out[j].OptionID })
	return out, nil
}

func (o *Options) CountByRequest(ctx context.Context, requestID string) (int, error) {
	opts, _ := o.ListByRequest(ctx, requestID)
	return len(opts), nil
}

func (o *Options) UpdateDescription(_ context.Context, optionID int64, description string) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if opt, ok := o.s.options[optionID]; ok {
		opt.OptionDescription = description
	}
	return nil
}

func (o *Options) MarkSelected(_ context.Context, requestID string, optionID int64) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	for _, opt := range o.s.options {
		if opt.RequestID == requestID {
			opt.IsSelected = opt.OptionID == optionID
		}
	}
	return nil
}

func (o *Options) Delete(_ context.Context, optionID int64) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	delete(o.s.options, optionID)
	return nil
}

func (o *Options) DeleteByRequest(_ context.Context, requestID string) (int64, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	var n int64
	for id, opt := range o.s.options {
		if opt.RequestID == requestID {
			delete(o.s.options, id)
			n++
		}
	}
	return n, nil
}

// Airlines implements port.AirlineRepository
type Airlines struct{ s *Store }

func (a *Airlines) ReplaceForRequest(_ context.Context, requestID string, segments []entity.AirlineSegment) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.s.airlines[requestID] = append([]entity.AirlineSegment(nil), segments...)
	return nil
}

func (a *Airlines) ListByRequest(_ context.Context, requestID string) ([]entity.AirlineSegment, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return append([]entity.AirlineSegment(nil), a.s.airlines[requestID]...), nil
}

// Projects implements port.ProjectRepository
type Projects struct{ s *Store }

func (p *Projects) GetByCode(_ context.Context, projectCode string) (*entity.Project, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if proj, ok := p.s.projects[strings.ToUpper(projectCode)]; ok {
		cp := *proj
		return &cp, nil
	}
	return nil, nil
}

// Users implements port.UserRepository
type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *entity.User) error {
	u.s.AddUser(user)
	return nil
}

func (u *Users) GetByID(_ context.Context, userID int64) (*entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user, ok := u.s.users[userID]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if user.HasEmail(email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (u *Users) ListActiveByRole(_ context.Context, role string) ([]*entity.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	var out []*entity.User
	for _, user := range u.s.users {
		if user.IsActive && strings.EqualFold(user.UserRole, role) {
			cp := *user
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Tx implements port.TransactionManager without isolation. It records how
// many transactions ran.
type Tx struct {
	mu    sync.Mutex
	Count int
}

func (t *Tx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.Count++
	t.mu.Unlock()
	return fn(ctx)
}

var (
	_ port.TravelRequestRepository = (*Requests)(nil)
	_ port.AuditLogRepository      = (*AuditLogs)(nil)
	_ port.TicketOptionRepository  = (*Options)(nil)
	_ port.AirlineRepository       = (*Airlines)(nil)
	_ port.ProjectRepository       = (*Projects)(nil)
	_ port.UserRepository          = (*Users)(nil)
	_ port.TransactionManager      = (*Tx)(nil)
)
