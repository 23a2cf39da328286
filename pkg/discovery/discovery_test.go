package discovery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nseopt/pkg/nse"
)

type fakeSource struct {
	expiries map[int][]string
	rows     map[string][]nse.QuoteRow // keyed by expiry
	probes   []nse.QuoteQuery
	years    []int
	err      error
}

func (f *fakeSource) ExpiryDates(_ context.Context, _ string, year int) ([]string, error) {
	f.years = append(f.years, year)
	if f.err != nil {
		return nil, f.err
	}
	return f.expiries[year], nil
}

func (f *fakeSource) Quotes(_ context.Context, q nse.QuoteQuery) ([]nse.QuoteRow, error) {
	f.probes = append(f.probes, q)
	return f.rows[q.Expiry], nil
}

type memCache struct {
	data map[string][]string
	sets int
}

func (m *memCache) GetExpiries(_ context.Context, symbol string, year int) ([]string, bool, error) {
	v, ok := m.data[fmt.Sprintf("%s/%d", symbol, year)]
	return v, ok, nil
}

func (m *memCache) SetExpiries(_ context.Context, symbol string, year int, dates []string) error {
	m.sets++
	m.data[fmt.Sprintf("%s/%d", symbol, year)] = dates
	return nil
}

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 10, 0, 0, 0, time.UTC) }
}

func strikeRows(underlying float64, strikes ...float64) []nse.QuoteRow {
	rows := make([]nse.QuoteRow, 0, len(strikes))
	for _, s := range strikes {
		rows = append(rows, nse.QuoteRow{StrikePrice: nse.NumOf(s), UnderlyingValue: nse.NumOf(underlying)})
	}
	return rows
}

func TestDefaultYears(t *testing.T) {
	require.Equal(t, []int{2022, 2023, 2024, 2025}, DefaultYears(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 4))

	d := New(Config{}, &fakeSource{}, WithClock(fixedClock(2025, 3, 1)))
	cfg := d.Config()
	require.Equal(t, []int{2022, 2023, 2024, 2025}, cfg.Years)
	require.Equal(t, DefaultMaxExpiries, cfg.MaxExpiries)
	require.Equal(t, DefaultMaxStrikes, cfg.MaxStrikes)
	require.True(t, cfg.StrikeBand.Equal(DefaultStrikeBand))
}

func TestDiscoverBuildsPlan(t *testing.T) {
	src := &fakeSource{
		expiries: map[int][]string{
			2024: {"28-Nov-2024", "31-Oct-2024", "26-Dec-2024", "30-Jan-2025", "bad-date", "28-nov-2024"},
		},
		rows: map[string][]nse.QuoteRow{
			"31-Oct-2024": strikeRows(1000, 850, 900, 950, 1000, 1050, 1100, 1150, 1000),
			"28-Nov-2024": strikeRows(0, 300, 100, 200),
		},
	}
	d := New(Config{Years: []int{2024}}, src, WithClock(fixedClock(2024, 11, 15)))

	plan, err := d.Discover(context.Background(), "TCS", 30)
	require.NoError(t, err)
	require.False(t, plan.NoExpiries)
	require.Equal(t, "TCS", plan.Symbol)

	// 31-Oct, 28-Nov and 26-Dec qualify; 26-Dec has no probe rows.
	require.Len(t, src.probes, 3)
	require.Len(t, plan.Expiries, 2)

	oct := plan.Expiries[0]
	require.Equal(t, "31-Oct-2024", oct.ExpiryRaw)
	require.Equal(t, time.Date(2024, 10, 16, 0, 0, 0, 0, time.UTC), oct.From, "clamped to the lookback start")
	require.Equal(t, time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC), oct.To)
	require.Equal(t, []string{"900", "950", "1000", "1050", "1100"}, strs(oct.Strikes))
	require.True(t, oct.Underlying.Equal(decimal.NewFromInt(1000)))

	nov := plan.Expiries[1]
	require.Equal(t, time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), nov.To, "window ends today for future expiries")
	require.Equal(t, []string{"100", "200", "300"}, strs(nov.Strikes), "no band without an underlying")

	probe := src.probes[0]
	require.Equal(t, "CE", probe.OptionType)
	require.Empty(t, probe.Strike)
	require.Equal(t, probe.From, probe.To)
}

func TestDiscoverNoExpiries(t *testing.T) {
	src := &fakeSource{expiries: map[int][]string{2023: {"28-Dec-2023"}}}
	d := New(Config{Years: []int{2023, 2024}}, src, WithClock(fixedClock(2024, 11, 15)))

	plan, err := d.Discover(context.Background(), "INFY", 30)
	require.NoError(t, err)
	require.True(t, plan.NoExpiries)
	require.True(t, plan.Empty())
	require.Empty(t, src.probes)
	require.Equal(t, []int{2023, 2024}, src.years)
}

func TestDiscoverZeroStrikeProbeYieldsEmptyPlan(t *testing.T) {
	src := &fakeSource{expiries: map[int][]string{2024: {"28-Nov-2024"}}}
	d := New(Config{Years: []int{2024}}, src, WithClock(fixedClock(2024, 11, 15)))

	plan, err := d.Discover(context.Background(), "INFY", 30)
	require.NoError(t, err)
	require.False(t, plan.NoExpiries)
	require.True(t, plan.Empty())
}

func TestDiscoverSkipsEmptyWindow(t *testing.T) {
	src := &fakeSource{expiries: map[int][]string{2024: {"15-Nov-2024"}}}
	d := New(Config{Years: []int{2024}}, src, WithClock(fixedClock(2024, 11, 15)))

	plan, err := d.Discover(context.Background(), "INFY", 0)
	require.NoError(t, err)
	require.True(t, plan.Empty())
	require.Empty(t, src.probes)
}

func TestDiscoverPropagatesTransportError(t *testing.T) {
	boom := &nse.TransportError{Attempts: 3, Err: errors.New("reset")}
	src := &fakeSource{err: boom}
	d := New(Config{Years: []int{2024}}, src, WithClock(fixedClock(2024, 11, 15)))

	_, err := d.Discover(context.Background(), "INFY", 30)
	require.ErrorIs(t, err, boom)
}

func TestDiscoverUsesCacheForClosedYears(t *testing.T) {
	cache := &memCache{data: map[string][]string{"TCS/2023": {"28-Dec-2023"}}}
	src := &fakeSource{expiries: map[int][]string{2022: {"29-Dec-2022"}, 2024: {"28-Nov-2024"}}}
	d := New(Config{Years: []int{2022, 2023, 2024}}, src, WithClock(fixedClock(2024, 11, 15)), WithCache(cache))

	_, err := d.Discover(context.Background(), "TCS", 30)
	require.NoError(t, err)
	require.Equal(t, []int{2022, 2024}, src.years, "2023 is served from cache")
	require.Equal(t, 1, cache.sets, "only closed years are written back")
	require.Equal(t, []string{"29-Dec-2022"}, cache.data["TCS/2022"])
}

func TestFilterExpiriesProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		var raw []RawExpiry
		for j := rng.Intn(20); j > 0; j-- {
			d := base.AddDate(0, 0, rng.Intn(500))
			raw = append(raw, RawExpiry{Raw: d.Format("02-Jan-2006"), Year: d.Year()})
		}
		cutoff := base.AddDate(0, 0, rng.Intn(500))

		got := FilterExpiries(raw, cutoff, 3)
		require.LessOrEqual(t, len(got), 3)
		for k, e := range got {
			require.False(t, e.Date.Before(cutoff))
			if k > 0 {
				require.True(t, got[k-1].Date.Before(e.Date))
			}
		}
	}
}

func TestSelectStrikesProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	band := DefaultStrikeBand
	for i := 0; i < 200; i++ {
		u := float64(100 + rng.Intn(5000))
		var strikes []float64
		for j := rng.Intn(60); j > 0; j-- {
			strikes = append(strikes, float64(rng.Intn(int(2*u))))
		}
		got := SelectStrikes(strikeRows(u, strikes...), decimal.NewFromFloat(u), band, 10)
		require.LessOrEqual(t, len(got), 10)

		lo := decimal.NewFromFloat(u).Mul(decimal.RequireFromString("0.9"))
		hi := decimal.NewFromFloat(u).Mul(decimal.RequireFromString("1.1"))
		for k, s := range got {
			require.False(t, s.LessThan(lo), "strike %s below band", s)
			require.False(t, s.GreaterThan(hi), "strike %s above band", s)
			if k > 0 {
				require.True(t, got[k-1].LessThan(s))
			}
		}
	}
}

func strs(ds []decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
