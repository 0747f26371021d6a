package app

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/card"
	"card_float_planner/internal/domain/payment"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Applied on Wed 2025-05-14 with no lag and no holidays these cards withdraw on:
//
//	late   2025-07-10 (closing 5, already rolled over)
//	mid    2025-06-27
//	early  2025-06-10
//	eom    2025-06-10 (month-end closing)
var applied = date(2025, time.May, 14)

func lateCard(balance int64) *card.Profile {
	return &card.Profile{ID: "late", Name: "Late", ClosingDay: 5, PaymentDay: 10, PaymentMonthOffset: 1, AvailableBalance: balance}
}

func midCard(balance int64) *card.Profile {
	return &card.Profile{ID: "mid", Name: "Mid", ClosingDay: 15, PaymentDay: 27, PaymentMonthOffset: 1, AvailableBalance: balance}
}

func earlyCard(balance int64) *card.Profile {
	return &card.Profile{ID: "early", Name: "Early", ClosingDay: 15, PaymentDay: 10, PaymentMonthOffset: 1, AvailableBalance: balance}
}

func eomCard(balance int64) *card.Profile {
	return &card.Profile{ID: "eom", Name: "EOM", ClosingDay: card.ClosingDayEndOfMonth, PaymentDay: 10, PaymentMonthOffset: 1, AvailableBalance: balance}
}

func req(id string, amount int64, splittable bool) *payment.Request {
	return &payment.Request{
		ID:              id,
		DisplayName:     "Payment " + id,
		Amount:          amount,
		IsSplittable:    splittable,
		ApplicationDate: applied,
		Category:        payment.CategoryPurchase,
	}
}

func allocationsByCard(p *payment.Request) map[string]int64 {
	out := make(map[string]int64)
	for _, a := range p.Allocations {
		out[a.CardID] += a.Amount
	}
	return out
}

// ─── Fakes ──────────────────────────────────────────────────────────────────

type fakeCardRepo struct {
	mu    sync.Mutex
	cards map[string]*card.Profile
	err   error
}

func newFakeCardRepo(cards ...*card.Profile) *fakeCardRepo {
	r := &fakeCardRepo{cards: make(map[string]*card.Profile)}
	for _, c := range cards {
		r.cards[c.ID] = c.Clone()
	}
	return r
}

func (r *fakeCardRepo) ListAll(ctx context.Context) ([]*card.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*card.Profile, 0, len(r.cards))
	for _, c := range r.cards {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCardRepo) GetByID(ctx context.Context, id string) (*card.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return nil, errCardMissing
	}
	return c.Clone(), nil
}

func (r *fakeCardRepo) Upsert(ctx context.Context, p *card.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[p.ID] = p.Clone()
	return nil
}

func (r *fakeCardRepo) UpdateAvailableBalance(ctx context.Context, id string, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[id]
	if !ok {
		return errCardMissing
	}
	c.AvailableBalance = balance
	return nil
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errCardMissing = sentinelErr("card not found")

type fakeHolidayRepo struct {
	mu       sync.Mutex
	holidays map[string]calendar.Holiday
}

func newFakeHolidayRepo(hs ...calendar.Holiday) *fakeHolidayRepo {
	r := &fakeHolidayRepo{holidays: make(map[string]calendar.Holiday)}
	for _, h := range hs {
		r.holidays[calendar.FormatDate(h.Date)] = h
	}
	return r
}

func (r *fakeHolidayRepo) ListHolidays(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []calendar.Holiday
	for _, h := range r.holidays {
		if !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHolidayRepo) AddHoliday(ctx context.Context, h calendar.Holiday) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holidays[calendar.FormatDate(h.Date)] = h
	return nil
}

func (r *fakeHolidayRepo) RemoveHoliday(ctx context.Context, d time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.holidays, calendar.FormatDate(d))
	return nil
}

type fakePaymentRepo struct {
	pending []*payment.Request
}

func (r *fakePaymentRepo) ListPending(ctx context.Context, appliedOnOrBefore time.Time) ([]*payment.Request, error) {
	var out []*payment.Request
	for _, p := range r.pending {
		if !p.ApplicationDate.After(appliedOnOrBefore) {
			out = append(out, p)
		}
	}
	return out, nil
}

type sentMessage struct {
	to   int64
	text string
	opts *telebot.SendOptions
}

type fakeTelegram struct {
	mu      sync.Mutex
	sent    []sentMessage
	err     error
	failFor map[int64]error
}

func (f *fakeTelegram) SendMessage(to int64, text string, opts *telebot.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if err := f.failFor[to]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{to: to, text: text, opts: opts})
	return nil
}

func (f *fakeTelegram) messagesTo(id int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.to == id {
			out = append(out, m)
		}
	}
	return out
}
