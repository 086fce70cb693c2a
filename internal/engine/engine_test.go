package engine_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/engine"
	"github.com/tartampluch/go-astrology/internal/store"
	"github.com/tartampluch/go-astrology/internal/validate"
	"github.com/tartampluch/go-astrology/internal/zodiac"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

// MockFetcher simulates the network layer for unit tests using `testify/mock`.
type MockFetcher struct {
	mock.Mock
}

// Fetch implements the engine.PageFetcher interface.
func (m *MockFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if r := args.Get(0); r != nil {
		return r.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// recordingSink keeps every appended row, or fails with err.
type recordingSink struct {
	rows []store.Row
	err  error
}

func (r *recordingSink) Append(_ context.Context, row store.Row) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, row)
	return nil
}

func page(html string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(html))
}

const dailyPage = `<html><body>
<div class="main-horoscope">
  <p><strong>Jun 20, 2026</strong> - A good   day
  for plans.</p>
  <p>Second paragraph is ignored.</p>
</div></body></html>`

const yearlyPage = `<html><body>
<div class="main-horoscope"><p>Wrong block.</p></div>
<div id="personal"><p>Your year in review.<script>track()</script></p></div>
</body></html>`

const compatibilityPage = `<html><body>
<div class="module-skin"><p>Fire meets fire.</p></div>
</body></html>`

func newReadings(f engine.PageFetcher, sink store.Sink) *engine.Readings {
	return &engine.Readings{
		Clock:     MockClock{CurrentTime: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)},
		Fetcher:   f,
		Endpoints: config.DefaultEndpoints(),
		Sink:      sink,
	}
}

var gerry = engine.PersonInput{Name: "Gerry", BirthDate: "20/06/1990"}

// -----------------------------------------------------------------------------
// Horoscope
// -----------------------------------------------------------------------------

func TestHoroscope_Daily(t *testing.T) {
	fetcher := new(MockFetcher)
	sink := &recordingSink{}
	wantURL := strings.ReplaceAll(config.EndpointDaily, config.PlaceholderOrdinal, "4")
	fetcher.On("Fetch", mock.Anything, wantURL).Return(page(dailyPage), nil).Once()

	reading, err := newReadings(fetcher, sink).Horoscope(context.Background(), gerry, engine.Daily)

	require.NoError(t, err)
	fetcher.AssertExpectations(t)
	assert.Equal(t, zodiac.Cancer, reading.Sign)
	assert.Equal(t, "Jun 20, 2026 - A good day for plans.", reading.Text)

	require.Len(t, sink.rows, 1)
	row := sink.rows[0]
	assert.Equal(t, store.SheetHoroscope, row.Sheet)
	assert.Equal(t, []string{"Gerry", "20/06/1990", "Cancer", "Daily", "Jun 20, 2026 - A good day for plans."}, row.Fields)
	assert.NoError(t, row.Validate())
}

func TestHoroscope_YearlyUsesClockYearAndSignName(t *testing.T) {
	fetcher := new(MockFetcher)
	sink := &recordingSink{}
	fetcher.On("Fetch", mock.Anything, "https://www.horoscope.com/us/horoscopes/yearly/2026-horoscope-cancer.aspx").
		Return(page(yearlyPage), nil).Once()

	reading, err := newReadings(fetcher, sink).Horoscope(context.Background(), gerry, engine.Yearly)

	require.NoError(t, err)
	fetcher.AssertExpectations(t)
	assert.Equal(t, "Your year in review.", reading.Text)
	require.Len(t, sink.rows, 1)
	assert.Equal(t, "Yearly", sink.rows[0].Fields[3])
}

func TestHoroscope_InvalidInputSkipsNetwork(t *testing.T) {
	tests := []struct {
		name    string
		in      engine.PersonInput
		wantErr error
	}{
		{"LowercaseName", engine.PersonInput{Name: "gerry", BirthDate: "20/06/1990"}, validate.ErrInvalidName},
		{"DigitsInName", engine.PersonInput{Name: "Gerry2", BirthDate: "20/06/1990"}, validate.ErrInvalidName},
		{"ImpossibleDate", engine.PersonInput{Name: "Gerry", BirthDate: "31/02/1990"}, validate.ErrInvalidDate},
		{"ShortDate", engine.PersonInput{Name: "Gerry", BirthDate: "1/6/1990"}, validate.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := new(MockFetcher)
			sink := &recordingSink{}

			_, err := newReadings(fetcher, sink).Horoscope(context.Background(), tt.in, engine.Daily)

			assert.ErrorIs(t, err, tt.wantErr)
			fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
			assert.Empty(t, sink.rows)
		})
	}
}

func TestHoroscope_Non200LeavesSinkUntouched(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	sink := &recordingSink{}
	r := newReadings(engine.NewHTTPFetcher(time.Second), sink)
	r.Endpoints.Daily = ts.URL + "/daily?sign={ordinal}"

	_, err := r.Horoscope(context.Background(), gerry, engine.Daily)

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrContentUnavailable)
	assert.Empty(t, sink.rows)
}

func TestHoroscope_MissingElement(t *testing.T) {
	fetcher := new(MockFetcher)
	sink := &recordingSink{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(page("<html><body>redesigned</body></html>"), nil)

	_, err := newReadings(fetcher, sink).Horoscope(context.Background(), gerry, engine.Weekly)

	assert.ErrorIs(t, err, engine.ErrContentUnavailable)
	assert.Contains(t, err.Error(), config.ErrElementMissing)
	assert.Empty(t, sink.rows)
}

func TestHoroscope_NetworkError(t *testing.T) {
	fetcher := new(MockFetcher)
	sink := &recordingSink{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := newReadings(fetcher, sink).Horoscope(context.Background(), gerry, engine.Monthly)

	assert.ErrorIs(t, err, engine.ErrContentUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, sink.rows)
}

func TestHoroscope_PersistFailureKeepsReading(t *testing.T) {
	fetcher := new(MockFetcher)
	sink := &recordingSink{err: errors.New("disk full")}
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(page(dailyPage), nil)

	reading, err := newReadings(fetcher, sink).Horoscope(context.Background(), gerry, engine.Daily)

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrPersist)
	assert.Equal(t, zodiac.Cancer, reading.Sign)
	assert.NotEmpty(t, reading.Text)
}

func TestReadings_MissingCollaborators(t *testing.T) {
	_, err := (&engine.Readings{Sink: &recordingSink{}}).Horoscope(context.Background(), gerry, engine.Daily)
	assert.EqualError(t, err, config.ErrFetcherMissing)

	_, err = (&engine.Readings{Fetcher: new(MockFetcher)}).Horoscope(context.Background(), gerry, engine.Daily)
	assert.EqualError(t, err, config.ErrSinkMissing)
}

// -----------------------------------------------------------------------------
// Compatibility
// -----------------------------------------------------------------------------

func TestCompatibility_KeepsInputOrder(t *testing.T) {
	ann := engine.PersonInput{Name: "Ann", BirthDate: "01/04/1990"}
	bob := engine.PersonInput{Name: "Bob", BirthDate: "01/08/1991"}

	tests := []struct {
		name     string
		first    engine.PersonInput
		second   engine.PersonInput
		wantPair string
		wantRow  []string
	}{
		{"AriesFirst", ann, bob, "Aries-Leo",
			[]string{"Ann", "01/04/1990", "Aries", "Bob", "01/08/1991", "Leo", "Fire meets fire."}},
		{"LeoFirst", bob, ann, "Leo-Aries",
			[]string{"Bob", "01/08/1991", "Leo", "Ann", "01/04/1990", "Aries", "Fire meets fire."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := new(MockFetcher)
			sink := &recordingSink{}
			wantURL := strings.ReplaceAll(config.EndpointCompatibility, config.PlaceholderSigns, tt.wantPair)
			fetcher.On("Fetch", mock.Anything, wantURL).Return(page(compatibilityPage), nil).Once()

			_, err := newReadings(fetcher, sink).Compatibility(context.Background(), tt.first, tt.second)

			require.NoError(t, err)
			fetcher.AssertExpectations(t)
			require.Len(t, sink.rows, 1)
			assert.Equal(t, store.SheetCompatibility, sink.rows[0].Sheet)
			assert.Equal(t, tt.wantRow, sink.rows[0].Fields)
		})
	}
}

func TestCompatibility_SecondNameCheckedBeforeDates(t *testing.T) {
	fetcher := new(MockFetcher)
	sink := &recordingSink{}
	first := engine.PersonInput{Name: "Ann", BirthDate: "bad"}
	second := engine.PersonInput{Name: "bob", BirthDate: "01/08/1991"}

	_, err := newReadings(fetcher, sink).Compatibility(context.Background(), first, second)

	assert.ErrorIs(t, err, validate.ErrInvalidName)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
	assert.Empty(t, sink.rows)
}

func TestCompatibility_ContentUnavailable(t *testing.T) {
	fetcher := new(MockFetcher)
	sink := &recordingSink{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(page(dailyPage), nil)

	_, err := newReadings(fetcher, sink).Compatibility(context.Background(),
		engine.PersonInput{Name: "Ann", BirthDate: "01/04/1990"},
		engine.PersonInput{Name: "Bob", BirthDate: "01/08/1991"},
	)

	assert.ErrorIs(t, err, engine.ErrContentUnavailable)
	assert.Empty(t, sink.rows)
}

// -----------------------------------------------------------------------------
// URLs and timeframes
// -----------------------------------------------------------------------------

func TestHoroscopeURL(t *testing.T) {
	ep := config.Endpoints{
		Daily:   "https://h.test/d?sign={ordinal}",
		Weekly:  "https://h.test/w?sign={ordinal}",
		Monthly: "https://h.test/m?sign={ordinal}",
		Yearly:  "https://h.test/y/{year}-{sign}",
	}

	tests := []struct {
		tf   engine.Timeframe
		sign zodiac.Sign
		want string
	}{
		{engine.Daily, zodiac.Aries, "https://h.test/d?sign=1"},
		{engine.Weekly, zodiac.Pisces, "https://h.test/w?sign=12"},
		{engine.Monthly, zodiac.Libra, "https://h.test/m?sign=7"},
		{engine.Yearly, zodiac.Sagittarius, "https://h.test/y/2026-sagittarius"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tf), func(t *testing.T) {
			got, err := engine.HoroscopeURL(ep, tt.tf, tt.sign, 2026)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := engine.HoroscopeURL(ep, "Hourly", zodiac.Aries, 2026)
	assert.ErrorContains(t, err, config.ErrUnknownTimeframe)
}

func TestParseTimeframe(t *testing.T) {
	for _, tf := range engine.Timeframes {
		got, err := engine.ParseTimeframe(string(tf))
		require.NoError(t, err)
		assert.Equal(t, tf, got)
	}
	_, err := engine.ParseTimeframe("daily")
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------
// Extraction
// -----------------------------------------------------------------------------

func TestExtractor_CustomSelectors(t *testing.T) {
	ex := engine.Extractor{Main: "article.reading"}
	html := `<article class="reading"><p>  Line one<br>line two </p></article>`

	text, err := ex.Horoscope(strings.NewReader(html), engine.Daily)

	require.NoError(t, err)
	assert.Equal(t, "Line one line two", text)
}

func TestExtractor_EmptyParagraph(t *testing.T) {
	_, err := engine.Extractor{}.Compatibility(strings.NewReader(`<div class="module-skin"><p>   </p></div>`))
	assert.ErrorIs(t, err, engine.ErrContentUnavailable)
}
