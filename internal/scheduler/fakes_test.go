package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stgiuliani/roster-engine/internal/model"
)

// In-memory collaborators for engine tests.  They hold plain maps and
// slices and snapshot state around transactions so rollback behaves
// like the real store.

var errFakeNotFound = errors.New("not found")

type memberRoleKey struct {
	memberID uint64
	roleID   uint64
}

type fakeStore struct {
	members map[uint64]*model.Member
	roles   map[uint64]*model.Role

	committed []model.AssignmentDetail

	skills        map[memberRoleKey]int
	preferred     map[memberRoleKey]bool
	prefEnabled   map[uint64]bool
	familyServing map[uint64][]time.Time

	byID map[uint64]*model.Assignment

	services     map[string]uint64
	inserted     []AssignmentRequest
	insertedRows []model.Assignment
	locked       []uint64

	// failInsertMember makes InsertAssignment fail for that member id.
	failInsertMember uint64

	// beforeTx runs at the start of Transaction, standing in for a
	// concurrent commit landing between validation and the transaction.
	beforeTx func()

	nextServiceID uint64
	nextAssignID  uint64
	txCalls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:       map[uint64]*model.Member{},
		roles:         map[uint64]*model.Role{},
		skills:        map[memberRoleKey]int{},
		preferred:     map[memberRoleKey]bool{},
		prefEnabled:   map[uint64]bool{},
		familyServing: map[uint64][]time.Time{},
		byID:          map[uint64]*model.Assignment{},
		services:      map[string]uint64{},
	}
}

func (f *fakeStore) addMember(m model.Member) *model.Member {
	f.members[m.ID] = &m
	return &m
}

func (f *fakeStore) addRole(r model.Role) *model.Role {
	f.roles[r.ID] = &r
	return &r
}

func (f *fakeStore) addCommitted(memberID, roleID uint64, date time.Time, serviceType string) {
	role := f.roles[roleID]
	roleName := ""
	if role != nil {
		roleName = role.Name
	}
	f.committed = append(f.committed, model.AssignmentDetail{
		ID:          uint64(len(f.committed) + 1),
		MemberID:    memberID,
		RoleID:      roleID,
		RoleName:    roleName,
		ServiceType: serviceType,
		Date:        date,
		Status:      model.StatusScheduled,
	})
}

func (f *fakeStore) MemberByID(_ context.Context, id uint64) (*model.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, errFakeNotFound
	}
	return m, nil
}

func (f *fakeStore) RoleByID(_ context.Context, id uint64) (*model.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, errFakeNotFound
	}
	return r, nil
}

func (f *fakeStore) CountAssignmentsInWindow(_ context.Context, memberID uint64, from, to time.Time) (int, error) {
	n := 0
	for _, a := range f.committed {
		if a.MemberID == memberID && !a.Date.Before(from) && !a.Date.After(to) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountRecentAssignments(_ context.Context, memberID uint64, date time.Time) (int, error) {
	from := date.AddDate(0, 0, -28)
	n := 0
	for _, a := range f.committed {
		if a.MemberID == memberID && !a.Date.Before(from) && a.Date.Before(date) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) AssignmentsOn(_ context.Context, memberID uint64, date time.Time) ([]model.AssignmentDetail, error) {
	out := []model.AssignmentDetail{}
	for _, a := range f.committed {
		if a.MemberID == memberID && sameDay(a.Date, date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) CountRoleAssignments(_ context.Context, roleID uint64, date time.Time, serviceType string) (int, error) {
	n := 0
	for _, a := range f.committed {
		if a.RoleID == roleID && a.ServiceType == serviceType && sameDay(a.Date, date) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CountStageAssignments(_ context.Context, date time.Time, serviceType string) (int, error) {
	n := 0
	for _, a := range f.committed {
		if a.ServiceType != serviceType || !sameDay(a.Date, date) {
			continue
		}
		if role, ok := f.roles[a.RoleID]; ok && role.Category == model.CategoryStage {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) SkillLevel(_ context.Context, memberID, roleID uint64) (int, error) {
	return f.skills[memberRoleKey{memberID, roleID}], nil
}

func (f *fakeStore) IsPreferredRole(_ context.Context, memberID, roleID uint64) (bool, error) {
	return f.preferred[memberRoleKey{memberID, roleID}], nil
}

func (f *fakeStore) PreferenceEnabled(_ context.Context, memberID uint64, _ string) (bool, error) {
	return f.prefEnabled[memberID], nil
}

func (f *fakeStore) HasFamilyMemberServing(_ context.Context, memberID uint64, date time.Time) (bool, error) {
	for _, d := range f.familyServing[memberID] {
		if sameDay(d, date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) AssignmentByID(_ context.Context, id uint64) (*model.Assignment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, errFakeNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) SetAssignmentStatus(_ context.Context, id uint64, status string) error {
	a, ok := f.byID[id]
	if !ok {
		return errFakeNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeStore) Transaction(_ context.Context, fn func(RosterWriter) error) error {
	f.txCalls++
	if f.beforeTx != nil {
		f.beforeTx()
	}
	insertedLen := len(f.inserted)
	rowsLen := len(f.insertedRows)
	servicesBefore := make(map[string]uint64, len(f.services))
	for k, v := range f.services {
		servicesBefore[k] = v
	}
	if err := fn(&fakeWriter{store: f}); err != nil {
		f.inserted = f.inserted[:insertedLen]
		f.insertedRows = f.insertedRows[:rowsLen]
		f.services = servicesBefore
		return err
	}
	return nil
}

type fakeWriter struct {
	store *fakeStore
}

func (w *fakeWriter) EnsureServiceInstance(_ context.Context, date time.Time, serviceType string) (uint64, error) {
	key := date.Format(model.DateLayout) + "|" + serviceType
	if id, ok := w.store.services[key]; ok {
		return id, nil
	}
	w.store.nextServiceID++
	w.store.services[key] = w.store.nextServiceID
	return w.store.nextServiceID, nil
}

// serviceInstance resolves a service id back to its (date, type) key.
func (w *fakeWriter) serviceInstance(serviceID uint64) (time.Time, string, bool) {
	for key, id := range w.store.services {
		if id != serviceID {
			continue
		}
		parts := strings.SplitN(key, "|", 2)
		d, err := time.Parse(model.DateLayout, parts[0])
		if err != nil {
			return time.Time{}, "", false
		}
		return d, parts[1], true
	}
	return time.Time{}, "", false
}

func (w *fakeWriter) LockServiceInstance(_ context.Context, serviceID uint64) error {
	w.store.locked = append(w.store.locked, serviceID)
	return nil
}

// CountStageAssignments counts committed stage rows for the instance
// plus the rows this transaction already inserted, mirroring what the
// SQL transaction sees.
func (w *fakeWriter) CountStageAssignments(ctx context.Context, serviceID uint64) (int, error) {
	d, serviceType, ok := w.serviceInstance(serviceID)
	if !ok {
		return 0, nil
	}
	n, err := w.store.CountStageAssignments(ctx, d, serviceType)
	if err != nil {
		return 0, err
	}
	for _, row := range w.store.insertedRows {
		if row.ServiceID != serviceID {
			continue
		}
		if role, found := w.store.roles[row.RoleID]; found && role.Category == model.CategoryStage {
			n++
		}
	}
	return n, nil
}

func (w *fakeWriter) CountRoleAssignments(ctx context.Context, serviceID, roleID uint64) (int, error) {
	d, serviceType, ok := w.serviceInstance(serviceID)
	if !ok {
		return 0, nil
	}
	n, err := w.store.CountRoleAssignments(ctx, roleID, d, serviceType)
	if err != nil {
		return 0, err
	}
	for _, row := range w.store.insertedRows {
		if row.ServiceID == serviceID && row.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (w *fakeWriter) InsertAssignment(_ context.Context, serviceID uint64, req AssignmentRequest) (*model.Assignment, error) {
	if w.store.failInsertMember != 0 && w.store.failInsertMember == req.MemberID {
		return nil, fmt.Errorf("insert failed for member %d", req.MemberID)
	}
	w.store.nextAssignID++
	a := model.Assignment{
		ID:        w.store.nextAssignID,
		MemberID:  req.MemberID,
		RoleID:    req.RoleID,
		ServiceID: serviceID,
		Status:    model.StatusScheduled,
	}
	w.store.inserted = append(w.store.inserted, req)
	w.store.insertedRows = append(w.store.insertedRows, a)
	return &a, nil
}

// fakeExceptionStore implements ExceptionStore in memory.
type fakeExceptionStore struct {
	overrides     []model.Override
	substitutions []model.Substitution
	blockouts     map[string]string
	assignments   []model.AssignmentDetail

	// reassignable holds member|role|date keys an UPDATE would match.
	reassignable map[string]bool
	reassigned   []string

	insertSubErr error
	nextID       uint64
}

func newFakeExceptionStore() *fakeExceptionStore {
	return &fakeExceptionStore{
		blockouts:    map[string]string{},
		reassignable: map[string]bool{},
	}
}

func reassignKey(memberID, roleID uint64, date time.Time) string {
	return fmt.Sprintf("%d|%d|%s", memberID, roleID, date.Format(model.DateLayout))
}

func (f *fakeExceptionStore) Transaction(_ context.Context, fn func(ExceptionWriter) error) error {
	ovLen := len(f.overrides)
	subLen := len(f.substitutions)
	reLen := len(f.reassigned)
	if err := fn(&fakeExceptionWriter{store: f}); err != nil {
		f.overrides = f.overrides[:ovLen]
		f.substitutions = f.substitutions[:subLen]
		f.reassigned = f.reassigned[:reLen]
		return err
	}
	return nil
}

func (f *fakeExceptionStore) UpsertBlockout(_ context.Context, memberID uint64, date time.Time, reason string) error {
	f.blockouts[fmt.Sprintf("%d|%s", memberID, date.Format(model.DateLayout))] = reason
	return nil
}

func (f *fakeExceptionStore) AssignmentsOn(_ context.Context, memberID uint64, date time.Time) ([]model.AssignmentDetail, error) {
	out := []model.AssignmentDetail{}
	for _, a := range f.assignments {
		if a.MemberID == memberID && sameDay(a.Date, date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeExceptionStore) Overrides(_ context.Context, date time.Time) ([]model.Override, error) {
	out := []model.Override{}
	for _, ov := range f.overrides {
		if sameDay(ov.Date, date) {
			out = append(out, ov)
		}
	}
	return out, nil
}

func (f *fakeExceptionStore) SubstitutionHistory(_ context.Context, memberID uint64) ([]model.Substitution, error) {
	out := []model.Substitution{}
	for _, sub := range f.substitutions {
		if sub.OriginalMemberID == memberID || sub.NewMemberID == memberID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (f *fakeExceptionStore) BlockoutDates(_ context.Context, memberID uint64, from, to time.Time) ([]model.BlockoutDate, error) {
	out := []model.BlockoutDate{}
	for key, reason := range f.blockouts {
		var id uint64
		var day string
		if _, err := fmt.Sscanf(key, "%d|%s", &id, &day); err != nil || id != memberID {
			continue
		}
		date, err := time.Parse(model.DateLayout, day)
		if err != nil || date.Before(from) || date.After(to) {
			continue
		}
		out = append(out, model.BlockoutDate{MemberID: memberID, Date: date, Reason: reason})
	}
	return out, nil
}

type fakeExceptionWriter struct {
	store *fakeExceptionStore
}

func (w *fakeExceptionWriter) InsertOverride(_ context.Context, ov *model.Override) error {
	w.store.nextID++
	ov.ID = w.store.nextID
	w.store.overrides = append(w.store.overrides, *ov)
	return nil
}

func (w *fakeExceptionWriter) ReassignAssignment(_ context.Context, originalMemberID, newMemberID, roleID uint64, date time.Time) (int64, error) {
	key := reassignKey(originalMemberID, roleID, date)
	if !w.store.reassignable[key] {
		return 0, nil
	}
	w.store.reassigned = append(w.store.reassigned, key)
	return 1, nil
}

func (w *fakeExceptionWriter) InsertSubstitution(_ context.Context, sub *model.Substitution) error {
	if w.store.insertSubErr != nil {
		return w.store.insertSubErr
	}
	w.store.nextID++
	sub.ID = w.store.nextID
	w.store.substitutions = append(w.store.substitutions, *sub)
	return nil
}

// fakeNotifier records every notification intent.
type notification struct {
	MemberID uint64
	Kind     string
	Title    string
	Message  string
}

type fakeNotifier struct {
	sent []notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, memberID uint64, kind, title, message string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification{MemberID: memberID, Kind: kind, Title: title, Message: message})
	return nil
}

// fakeAvailability serves candidate lists keyed by date and role.
type fakeAvailability struct {
	candidates map[string][]model.Member
	err        error
}

func availKey(date time.Time, roleID uint64) string {
	return fmt.Sprintf("%s|%d", date.Format(model.DateLayout), roleID)
}

func (a *fakeAvailability) AvailableMembers(_ context.Context, date time.Time, roleID uint64) ([]model.Member, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.candidates[availKey(date, roleID)], nil
}

func date(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptrU32(v uint32) *uint32 { return &v }

func ptrTime(t time.Time) *time.Time { return &t }
