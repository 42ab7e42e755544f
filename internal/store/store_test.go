package store

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casebook/internal/audit"
	"github.com/roach88/casebook/internal/logging"
	"github.com/roach88/casebook/internal/record"
	"github.com/roach88/casebook/internal/testutil"
	"github.com/roach88/casebook/internal/testutil/fixture"
	"github.com/roach88/casebook/internal/validate"
)

const acme = "Acme Law"

// countingLock records how many times each firm's lock was taken.
type countingLock struct {
	inner Lock
	mu    sync.Mutex
	calls map[string]int
}

func (l *countingLock) With(ctx context.Context, firm string, fn func() error) error {
	l.mu.Lock()
	if l.calls == nil {
		l.calls = map[string]int{}
	}
	l.calls[firm]++
	l.mu.Unlock()
	return l.inner.With(ctx, firm, fn)
}

func (l *countingLock) count(firm string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[firm]
}

// newStore returns a store over a fresh workspace with datasets created for
// every firm and the clock pinned to 2026-01-20.
func newStore(t *testing.T, opts ...Option) (*Store, *fixture.Workspace, *testutil.FakeClock) {
	t.Helper()
	ws := fixture.NewWorkspace(t, fixture.AcmeLaw, fixture.BoltAndCo)
	clk := testutil.NewFakeClock(time.Date(2026, 1, 20, 9, 30, 0, 0, time.UTC))
	base := []Option{WithClock(clk), WithLogger(logging.Discard())}
	s := New(ws.Config, append(base, opts...)...)

	_, err := s.CreateAll(fixture.Context(), false)
	require.NoError(t, err)
	return s, ws, clk
}

func doeVRoe() record.Update {
	return record.Update{
		IndexNumber:    "IDX-1",
		AppearanceDate: "2026-01-05",
		CaseCaption:    record.Some("Doe v Roe"),
		ChargeAmount:   record.Some(decimal.RequireFromString("150.00")),
	}
}

func TestCreate_WritesHeaderOnly(t *testing.T) {
	s, ws, _ := newStore(t)

	content := fixture.ReadFile(t, ws.Config.TablePath(acme))
	assert.Equal(t, strings.Join(record.Columns, ",")+"\n", content)

	records, err := s.Load(fixture.Context(), acme)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreate_ExistingDataset(t *testing.T) {
	s, ws, _ := newStore(t)
	ctx := fixture.Context()

	_, err := s.Upsert(ctx, acme, doeVRoe())
	require.NoError(t, err)

	_, err = s.Create(ctx, acme, false)
	assert.True(t, IsCode(err, CodeDatasetExists), "got %v", err)

	path, err := s.Create(ctx, "acme law", true)
	require.NoError(t, err)
	assert.Equal(t, ws.Config.TablePath(acme), path)

	records, err := s.Load(ctx, acme)
	require.NoError(t, err)
	assert.Empty(t, records, "overwrite erases the table")
}

func TestStore_FirmNotFound(t *testing.T) {
	s, _, _ := newStore(t)

	_, err := s.Load(fixture.Context(), "Nobody LLP")
	require.Error(t, err)
	assert.Equal(t, CodeFirmNotFound, CodeOf(err))
	assert.Contains(t, err.Error(), "Acme Law")
}

func TestStore_DatasetNotFound(t *testing.T) {
	ws := fixture.NewWorkspace(t)
	s := New(ws.Config, WithLogger(logging.Discard()))
	ctx := fixture.Context()

	_, err := s.Load(ctx, acme)
	assert.Equal(t, CodeDatasetNotFound, CodeOf(err))

	_, err = s.Upsert(ctx, acme, doeVRoe())
	assert.Equal(t, CodeDatasetNotFound, CodeOf(err))

	_, err = s.Validate(ctx, acme)
	assert.Equal(t, CodeDatasetNotFound, CodeOf(err))
}

func TestStore_BrokenHeader(t *testing.T) {
	s, ws, _ := newStore(t)
	ws.WriteTable(t, acme, "appearance_date,index_number\n2026-01-05,IDX-1\n")

	_, err := s.Load(fixture.Context(), acme)
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeValidationFailed, se.Code)
	assert.Equal(t, validate.CodeMissingColumns, se.Rule)
	assert.Contains(t, se.Message, "case_caption")
}

func TestUpsert_InsertThenFind(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	action, err := s.Upsert(ctx, acme, doeVRoe())
	require.NoError(t, err)
	assert.Equal(t, Inserted, action)

	rec, ok, err := s.FindByKey(ctx, acme, "idx-1", "2026-01-05")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.CaseRecord{
		AppearanceDate: "2026-01-05",
		IndexNumber:    "IDX-1",
		CaseCaption:    "Doe v Roe",
		ChargeAmount:   "150.00",
	}, rec)
}

func TestUpsert_Idempotent(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	first, err := s.Upsert(ctx, acme, doeVRoe())
	require.NoError(t, err)
	second, err := s.Upsert(ctx, acme, doeVRoe())
	require.NoError(t, err)

	assert.Equal(t, Inserted, first)
	assert.Equal(t, Updated, second)

	records, err := s.Load(ctx, acme)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestUpsert_PartialUpdateKeepsOtherFields(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	u := doeVRoe()
	u.Court = record.Some("Kings County")
	u.Notes = record.Some("first appearance")
	_, err := s.Upsert(ctx, acme, u)
	require.NoError(t, err)

	action, err := s.Upsert(ctx, acme, record.Update{
		IndexNumber:    "Idx-1",
		AppearanceDate: "2026-01-05T00:00:00",
		Outcome:        record.Some("Adjourned to March"),
		CaseStatus:     record.Some(record.StatusAdjourned),
	})
	require.NoError(t, err)
	assert.Equal(t, Updated, action)

	rec, ok, err := s.FindByKey(ctx, acme, "IDX-1", "2026-01-05")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "IDX-1", rec.IndexNumber, "stored key cells are kept")
	assert.Equal(t, "Doe v Roe", rec.CaseCaption)
	assert.Equal(t, "Kings County", rec.Court)
	assert.Equal(t, "first appearance", rec.Notes)
	assert.Equal(t, "150.00", rec.ChargeAmount)
	assert.Equal(t, "Adjourned to March", rec.Outcome)
	assert.Equal(t, record.StatusAdjourned, rec.CaseStatus)
}

func TestUpsert_InsertRequiresCaptionAndCharge(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	_, err := s.Upsert(ctx, acme, record.Update{
		IndexNumber:    "IDX-9",
		AppearanceDate: "2026-01-06",
		Court:          record.Some("Queens"),
	})
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, CodeValidationFailed, se.Code)
	assert.Equal(t, record.ColCaseCaption, se.Field)
	assert.Contains(t, se.Message, "charge_amount")

	records, err := s.Load(ctx, acme)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUpsert_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*record.Update)
		field string
	}{
		{"bad date", func(u *record.Update) { u.AppearanceDate = "05/01/2026" }, record.ColAppearanceDate},
		{"negative charge", func(u *record.Update) { u.ChargeAmount = record.Some(decimal.NewFromInt(-5)) }, record.ColChargeAmount},
		{"bad case status", func(u *record.Update) { u.CaseStatus = record.Some(record.CaseStatus("Pending")) }, record.ColCaseStatus},
		{"bad paid status", func(u *record.Update) { u.PaidStatus = record.Some(record.PaidStatus("Sort of")) }, record.ColPaidStatus},
		{"blank index", func(u *record.Update) { u.IndexNumber = " " }, record.ColIndexNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newStore(t)
			u := doeVRoe()
			tt.edit(&u)

			_, err := s.Upsert(fixture.Context(), acme, u)
			var se *Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, CodeValidationFailed, se.Code)
			assert.Equal(t, tt.field, se.Field)
		})
	}
}

func TestUpsertBatch_SingleLockAndPerRecordResults(t *testing.T) {
	ws := fixture.NewWorkspace(t)
	plain := New(ws.Config, WithLogger(logging.Discard()))
	_, err := plain.Create(fixture.Context(), acme, false)
	require.NoError(t, err)

	lock := &countingLock{inner: plain.lock}
	s := New(ws.Config, WithLock(lock), WithLogger(logging.Discard()))
	ctx := fixture.Context()

	_, err = s.Upsert(ctx, acme, doeVRoe())
	require.NoError(t, err)
	require.Equal(t, 1, lock.count(acme))

	second := record.Update{
		IndexNumber:    "IDX-2",
		AppearanceDate: "2026-01-07",
		CaseCaption:    record.Some("Poe v Moe"),
		ChargeAmount:   record.Some(decimal.NewFromInt(90)),
	}
	results, err := s.UpsertBatch(ctx, acme, []record.Update{
		second,
		{IndexNumber: "idx-1", AppearanceDate: "2026-01-05", Notes: record.Some("bulk")},
		{IndexNumber: "IDX-2", AppearanceDate: "2026-01-07", Court: record.Some("Bronx")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, lock.count(acme), "one lock hold for the whole batch")
	require.Len(t, results, 3)
	assert.Equal(t, Inserted, results[0].Action)
	assert.Equal(t, Updated, results[1].Action)
	assert.Equal(t, Updated, results[2].Action)

	records, err := s.Load(ctx, acme)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "bulk", records[0].Notes)
	assert.Equal(t, "Bronx", records[1].Court)
}

func TestUpsertBatch_InvalidUpdateWritesNothing(t *testing.T) {
	s, ws, _ := newStore(t)
	before := fixture.ReadFile(t, ws.Config.TablePath(acme))

	_, err := s.UpsertBatch(fixture.Context(), acme, []record.Update{
		doeVRoe(),
		{IndexNumber: "IDX-3", AppearanceDate: "not a date"},
	})
	assert.Equal(t, CodeValidationFailed, CodeOf(err))
	assert.Equal(t, before, fixture.ReadFile(t, ws.Config.TablePath(acme)))
}

func TestUpsert_KeepsExtraColumns(t *testing.T) {
	s, ws, _ := newStore(t)
	header := strings.Join(record.Columns, ",") + ",matter_ref"
	ws.WriteTable(t, acme, header+"\n2026-01-05,,IDX-1,Doe v Roe,,,,150.00,,,,,M-77\n")

	_, err := s.Upsert(fixture.Context(), acme, record.Update{
		IndexNumber:    "IDX-1",
		AppearanceDate: "2026-01-05",
		Notes:          record.Some("kept"),
	})
	require.NoError(t, err)

	content := fixture.ReadFile(t, ws.Config.TablePath(acme))
	assert.Equal(t, header+"\n2026-01-05,,IDX-1,Doe v Roe,,,,150.00,,,,kept,M-77\n", content)
}

func TestUpsert_ConcurrentWritersLoseNothing(t *testing.T) {
	s, ws, _ := newStore(t)
	ctx := fixture.Context()

	const writers = 6
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Separate stores mimic separate processes: each takes its own
			// lock handle on the sentinel.
			other := New(ws.Config, WithLogger(logging.Discard()))
			_, err := other.Upsert(ctx, acme, record.Update{
				IndexNumber:    "IDX-C" + string(rune('A'+i)),
				AppearanceDate: "2026-02-02",
				CaseCaption:    record.Some("Concurrent"),
				ChargeAmount:   record.Some(decimal.NewFromInt(int64(10 * (i + 1)))),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := s.Load(ctx, acme)
	require.NoError(t, err)
	assert.Len(t, records, writers)

	vs, err := s.Validate(ctx, acme)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestFindByInvoiceNumber(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	u := doeVRoe()
	u.InvoiceNumber = record.Some("AL2026001")
	_, err := s.Upsert(ctx, acme, u)
	require.NoError(t, err)

	rec, ok, err := s.FindByInvoiceNumber(ctx, acme, " AL2026001 ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "IDX-1", rec.IndexNumber)

	_, ok, err = s.FindByInvoiceNumber(ctx, acme, "AL2026002")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.FindByInvoiceNumber(ctx, acme, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryByDateRange(t *testing.T) {
	s, ws, _ := newStore(t)
	ws.WriteTable(t, acme, strings.Join(record.Columns, ",")+"\n"+
		"2026-01-09,,IDX-3,C,,,,10,,,,\n"+
		"2026-01-05,,IDX-1,A,,,,10,,,,\n"+
		"someday,,IDX-X,X,,,,10,,,,\n"+
		",,,,,,,,,,,\n"+
		"2026-01-05 14:00:00,,IDX-2,B,,,,10,,,,\n"+
		"2026-01-12,,IDX-4,D,,,,10,,,,\n")

	got, err := s.QueryByDateRange(fixture.Context(), acme,
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var captions []string
	for _, r := range got {
		captions = append(captions, r.CaseCaption)
	}
	assert.Equal(t, []string{"A", "B", "C"}, captions)
}

func TestEditField_ErrorOrder(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	u := doeVRoe()
	u.InvoiceSentDate = record.Some("2026-01-10")
	_, err := s.Upsert(ctx, acme, u)
	require.NoError(t, err)

	tests := []struct {
		name  string
		firm  string
		index string
		field string
		value string
		want  Code
	}{
		{"field before firm", "Nobody", "IDX-1", "invoice_number", "X", CodeFieldNotFound},
		{"unknown firm", "Nobody", "IDX-1", "court", "X", CodeFirmNotFound},
		{"unknown case", acme, "IDX-404", "charge_amount", "abc", CodeCaseNotFound},
		{"reason before value", acme, "IDX-1", "charge_amount", "abc", CodeReasonRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.EditField(ctx, tt.firm, tt.index, "2026-01-05", tt.field, tt.value, "")
			assert.Equal(t, tt.want, CodeOf(err), "got %v", err)
		})
	}

	entries, err := audit.Read(s.AuditLog().Path())
	require.NoError(t, err)
	assert.Empty(t, entries, "failed edits are not audited")
}

func TestEditField_ValidationFailures(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()
	_, err := s.Upsert(ctx, acme, doeVRoe())
	require.NoError(t, err)

	for _, tc := range []struct{ field, value string }{
		{"charge_amount", "lots"},
		{"charge_amount", "-1"},
		{"case_status", "Pending"},
		{"case_status", " "},
	} {
		_, err := s.EditField(ctx, acme, "IDX-1", "2026-01-05", tc.field, tc.value, "")
		var se *Error
		require.ErrorAs(t, err, &se, "%s=%q", tc.field, tc.value)
		assert.Equal(t, CodeValidationFailed, se.Code)
		assert.Equal(t, tc.field, se.Field)
		assert.Equal(t, "IDX-1|2026-01-05", se.Key)
	}

	rec, _, err := s.FindByKey(ctx, acme, "IDX-1", "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, "150.00", rec.ChargeAmount)
}

func TestEditField_ReasonRecordedInAudit(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	u := doeVRoe()
	u.InvoiceSentDate = record.Some("2026-01-10")
	_, err := s.Upsert(ctx, acme, u)
	require.NoError(t, err)

	change, err := s.EditField(ctx, acme, "idx-1", "2026-01-05", "charge_amount", "175", "court added a second hearing")
	require.NoError(t, err)
	assert.Equal(t, "150.00", change.OldValue)
	assert.Equal(t, "175.00", change.NewValue)

	entries, err := audit.Read(s.AuditLog().Path())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, audit.ActionEditCharge, e.Action)
	assert.Equal(t, acme, e.Firm)
	assert.Equal(t, "IDX-1|2026-01-05", e.CaseKey)
	assert.Equal(t, "court added a second hearing", e.Reason)
	assert.Equal(t, fixture.TestActor.User, e.User)
	assert.Equal(t, fixture.TestActor.Hostname, e.Hostname)
	assert.Equal(t, change.Audit.Timestamp.Format(audit.TimestampLayout), e.Timestamp.Format(audit.TimestampLayout))
}

func TestEditField_FreeTextAndStatus(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()
	_, err := s.Upsert(ctx, acme, doeVRoe())
	require.NoError(t, err)

	_, err = s.EditField(ctx, acme, "IDX-1", "2026-01-05", "court", "Kings County", "")
	require.NoError(t, err)
	_, err = s.EditField(ctx, acme, "IDX-1", "2026-01-05", "case_status", " Closed ", "")
	require.NoError(t, err)

	rec, _, err := s.FindByKey(ctx, acme, "IDX-1", "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, "Kings County", rec.Court)
	assert.Equal(t, record.StatusClosed, rec.CaseStatus)

	entries, err := audit.Read(s.AuditLog().Path())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionEditCourt, entries[0].Action)
	assert.Equal(t, "", entries[0].OldValue)
	assert.Equal(t, audit.ActionEditStatus, entries[1].Action)
	assert.Equal(t, "Closed", entries[1].NewValue)
}

func TestEditableFields(t *testing.T) {
	assert.Equal(t, []string{"case_status", "charge_amount", "court", "notes", "outcome"}, EditableFields())
}

// Acme Law, empty table: insert, number, attach, edit the charge.
func TestAcmeLawScenario(t *testing.T) {
	s, ws, _ := newStore(t)
	ctx := fixture.Context()

	action, err := s.Upsert(ctx, acme, doeVRoe())
	require.NoError(t, err)
	assert.Equal(t, Inserted, action)

	number, err := s.NextInvoiceNumber(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "AL2026001", number)

	action, err = s.Upsert(ctx, acme, record.Update{
		IndexNumber:    "IDX-1",
		AppearanceDate: "2026-01-05",
		InvoiceNumber:  record.Some(number),
	})
	require.NoError(t, err)
	assert.Equal(t, Updated, action)

	// Not yet sent, so no reason is needed.
	change, err := s.EditField(ctx, acme, "IDX-1", "2026-01-05", "charge_amount", "200.00", "")
	require.NoError(t, err)
	assert.Equal(t, "150.00", change.OldValue)
	assert.Equal(t, "200.00", change.NewValue)

	entries, err := audit.Read(ws.Config.AuditLogPath())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "150.00", entries[0].OldValue)
	assert.Equal(t, "200.00", entries[0].NewValue)

	// Once sent, the same edit needs a reason.
	_, err = s.Upsert(ctx, acme, record.Update{
		IndexNumber:     "IDX-1",
		AppearanceDate:  "2026-01-05",
		InvoiceSentDate: record.Some("2026-01-21"),
	})
	require.NoError(t, err)
	_, err = s.EditField(ctx, acme, "IDX-1", "2026-01-05", "charge_amount", "250.00", "")
	assert.True(t, IsCode(err, CodeReasonRequired))
}

func TestAssignMissing(t *testing.T) {
	s, ws, _ := newStore(t)
	ctx := fixture.Context()

	ws.WriteTable(t, acme, strings.Join(record.Columns, ",")+"\n"+
		"2026-01-05,,IDX-1,A,,,,10,,,,\n"+
		"2026-01-06,AL2025044,IDX-2,B,,,,10,,,,\n"+
		",,,,,,,,,,,\n"+
		"2026-01-07,,IDX-3,C,,,,10,,,,\n")

	got, err := s.AssignMissing(ctx, acme)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Assignment{Key: record.Key{IndexNumber: "IDX-1", AppearanceDate: "2026-01-05"}, CaseCaption: "A", InvoiceNumber: "AL2026001"}, got[0])
	assert.Equal(t, "AL2026002", got[1].InvoiceNumber)
	assert.Equal(t, "C", got[1].CaseCaption)

	records, err := s.Load(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "AL2026001", records[0].InvoiceNumber)
	assert.Equal(t, "AL2025044", records[1].InvoiceNumber)
	assert.Equal(t, "AL2026002", records[2].InvoiceNumber)

	again, err := s.AssignMissing(ctx, acme)
	require.NoError(t, err)
	assert.Empty(t, again)

	next, err := s.NextInvoiceNumber(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "AL2026003", next)
}

func TestAssignMissing_FirmsHaveSeparateCounters(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	_, err := s.Upsert(ctx, acme, doeVRoe())
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "Bolt & Co", doeVRoe())
	require.NoError(t, err)

	a, err := s.AssignMissing(ctx, acme)
	require.NoError(t, err)
	b, err := s.AssignMissing(ctx, "bolt & co")
	require.NoError(t, err)

	assert.Equal(t, "AL2026001", a[0].InvoiceNumber)
	assert.Equal(t, "BC2026001", b[0].InvoiceNumber)
}

func TestAssignMissing_YearRollover(t *testing.T) {
	s, _, clk := newStore(t)
	ctx := fixture.Context()

	n, err := s.NextInvoiceNumber(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "AL2026001", n)

	clk.Set(time.Date(2027, 1, 2, 8, 0, 0, 0, time.UTC))
	n, err = s.NextInvoiceNumber(ctx, acme)
	require.NoError(t, err)
	assert.Equal(t, "AL2027001", n)
}

func TestMarkPayment(t *testing.T) {
	s, _, clk := newStore(t)
	ctx := fixture.Context()

	u := doeVRoe()
	u.InvoiceNumber = record.Some("AL2026001")
	_, err := s.Upsert(ctx, acme, u)
	require.NoError(t, err)

	got, err := s.MarkPayment(ctx, acme, PaymentUpdate{InvoiceNumber: "AL2026001", Status: record.PaidPartial, PaymentDate: "2026-01-15"})
	require.NoError(t, err)
	assert.Equal(t, record.PaidPartial, got.Record.PaidStatus)
	assert.Equal(t, "2026-01-15", got.Record.PaymentDate)
	assert.Equal(t, record.PaidStatus(""), got.Entry.OldStatus)

	// Paid with a stored date keeps it.
	got, err = s.MarkPayment(ctx, acme, PaymentUpdate{InvoiceNumber: "AL2026001", Status: record.PaidPaid})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", got.Record.PaymentDate)

	entries, err := s.PaymentLog().Read(acme)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, record.PaidPartial, entries[1].OldStatus)
	assert.Equal(t, record.PaidPaid, entries[1].NewStatus)
	assert.Equal(t, "Doe v Roe", entries[1].CaseCaption)
	assert.Equal(t, clk.Now().Format(audit.TimestampLayout), entries[1].Timestamp.Format(audit.TimestampLayout))
}

func TestMarkPayment_PaidDefaultsToToday(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	u := doeVRoe()
	u.InvoiceNumber = record.Some("AL2026001")
	_, err := s.Upsert(ctx, acme, u)
	require.NoError(t, err)

	notes := "check 1042"
	got, err := s.MarkPayment(ctx, acme, PaymentUpdate{InvoiceNumber: "AL2026001", Status: "Paid", Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-20", got.Record.PaymentDate)

	rec, _, err := s.FindByKey(ctx, acme, "IDX-1", "2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, record.PaidPaid, rec.PaidStatus)
	assert.Equal(t, "check 1042", rec.Notes)
}

func TestMarkPayment_Failures(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := fixture.Context()

	u := doeVRoe()
	u.InvoiceNumber = record.Some("AL2026001")
	_, err := s.Upsert(ctx, acme, u)
	require.NoError(t, err)

	_, err = s.MarkPayment(ctx, acme, PaymentUpdate{InvoiceNumber: "AL2026001", Status: "Overdue"})
	assert.Equal(t, CodeValidationFailed, CodeOf(err))

	_, err = s.MarkPayment(ctx, acme, PaymentUpdate{InvoiceNumber: "AL2026001", Status: ""})
	assert.Equal(t, CodeValidationFailed, CodeOf(err))

	_, err = s.MarkPayment(ctx, acme, PaymentUpdate{InvoiceNumber: "AL2026001", Status: "Paid", PaymentDate: "15/01/2026"})
	assert.Equal(t, CodeValidationFailed, CodeOf(err))

	_, err = s.MarkPayment(ctx, acme, PaymentUpdate{InvoiceNumber: "AL2026999", Status: "Paid"})
	assert.Equal(t, CodeInvoiceNotFound, CodeOf(err))

	entries, err := s.PaymentLog().Read(acme)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	s, ws, _ := newStore(t)
	ws.WriteTable(t, acme, strings.Join(record.Columns, ",")+"\n"+
		"2026-01-05,,IDX-1,A,,,,10,,,,\n"+
		"2026-01-05,,idx-1,B,,,,x,,,,\n")

	vs, err := s.Validate(fixture.Context(), acme)
	require.NoError(t, err)

	codes := map[string]bool{}
	for _, v := range vs {
		codes[v.Code] = true
	}
	assert.True(t, codes[validate.CodeInvalidAmount])
	assert.True(t, codes[validate.CodeDuplicateKey])
}
