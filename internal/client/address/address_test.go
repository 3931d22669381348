package address

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hanoi = Province{
	Name: "Thành phố Hà Nội",
	Code: 1,
	Districts: []District{
		{Name: "Quận Ba Đình", Code: 1, Wards: []Ward{
			{Name: "Phường Phúc Xá", Code: 1, DistrictCode: 1},
			{Name: "Phường Trúc Bạch", Code: 4, DistrictCode: 1},
		}},
		{Name: "Quận Hoàn Kiếm", Code: 2, Wards: []Ward{
			{Name: "Phường Hàng Bạc", Code: 37},
		}},
	},
}

type fakeProvinces struct {
	calls  atomic.Int32
	status atomic.Int32
}

func (f *fakeProvinces) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if s := f.status.Load(); s != 0 {
		w.WriteHeader(int(s))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/p":
		_ = json.NewEncoder(w).Encode([]Province{
			{Name: hanoi.Name, Code: 1},
			{Name: "Tỉnh Hà Giang", Code: 2},
		})
	case "/p/1":
		if r.URL.Query().Get("depth") != "3" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(hanoi)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, opts ...ClientOption) (*Client, *fakeProvinces) {
	t.Helper()
	fake := &fakeProvinces{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, CacheTTL: time.Minute}, opts...), fake
}

func TestClient_ProvincesAreCached(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	provinces, err := c.Provinces(ctx)
	require.NoError(t, err)
	require.Len(t, provinces, 2)
	assert.Equal(t, "Thành phố Hà Nội", provinces[0].Name)

	_, err = c.Provinces(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.calls.Load())

	c.Flush()
	_, err = c.Provinces(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestClient_ProvinceDetails(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	p, err := c.Province(ctx, 1)
	require.NoError(t, err)
	require.Len(t, p.Districts, 2)
	assert.Len(t, p.Districts[0].Wards, 2)

	_, err = c.Province(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.calls.Load())

	_, err = c.Province(ctx, 99)
	assert.ErrorIs(t, err, ErrProvinceNotFound)
}

func TestClient_BreakerOpensOnUpstreamFailures(t *testing.T) {
	c, fake := newTestClient(t, WithBreaker(2, time.Minute))
	fake.status.Store(http.StatusBadGateway)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Provinces(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUpstream)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err := c.Provinces(ctx)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	c, _ := newTestClient(t, WithBreaker(1, time.Minute))

	_, err := c.Province(context.Background(), 42)
	require.ErrorIs(t, err, ErrProvinceNotFound)
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestFlattenWards(t *testing.T) {
	wards := FlattenWards(&hanoi)
	require.Len(t, wards, 3)
	assert.Equal(t, "Quận Ba Đình", wards[0].DistrictName)
	assert.Equal(t, "Phường Hàng Bạc - Quận Hoàn Kiếm", wards[2].Label())
	assert.Equal(t, 2, wards[2].DistrictCode)
	assert.Nil(t, FlattenWards(nil))
}

func TestSelector_Cascade(t *testing.T) {
	c, _ := newTestClient(t)
	s := NewSelector(c)
	ctx := context.Background()

	provinces, err := s.LoadProvinces(ctx)
	require.NoError(t, err)
	assert.Len(t, provinces, 2)

	wards, err := s.SelectProvince(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, wards, 3)
	assert.False(t, s.Loading())
	assert.False(t, s.Selection().Complete())

	require.NoError(t, s.SelectWard(37))
	sel := s.Selection()
	assert.True(t, sel.Complete())
	assert.Equal(t, Selection{
		Province: "Thành phố Hà Nội", District: "Quận Hoàn Kiếm", Ward: "Phường Hàng Bạc",
		ProvinceCode: 1, DistrictCode: 2, WardCode: 37,
	}, sel)

	assert.ErrorIs(t, s.SelectWard(999), ErrUnknownWard)
	assert.Equal(t, 37, s.Selection().WardCode)
}

func TestSelector_ChangingProvinceResetsWard(t *testing.T) {
	c, _ := newTestClient(t)
	s := NewSelector(c)
	ctx := context.Background()

	_, err := s.LoadProvinces(ctx)
	require.NoError(t, err)
	_, err = s.SelectProvince(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, s.SelectWard(1))

	// Hà Giang has no detail endpoint in the fake: wards stay empty
	wards, err := s.SelectProvince(ctx, 2)
	require.Error(t, err)
	assert.Empty(t, wards)
	assert.Empty(t, s.Wards())

	sel := s.Selection()
	assert.Equal(t, "Tỉnh Hà Giang", sel.Province)
	assert.Zero(t, sel.WardCode)

	_, err = s.SelectProvince(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, Selection{}, s.Selection())
}

func TestSelector_UpstreamDownKeepsWorking(t *testing.T) {
	c, fake := newTestClient(t)
	fake.status.Store(http.StatusServiceUnavailable)
	s := NewSelector(c)

	provinces, err := s.LoadProvinces(context.Background())
	require.Error(t, err)
	assert.Empty(t, provinces)
	assert.Empty(t, s.Provinces())
}

type stubSource struct {
	details map[int]chan *Province
}

func (s *stubSource) Provinces(context.Context) ([]Province, error) { return nil, nil }

func (s *stubSource) Province(_ context.Context, code int) (*Province, error) {
	p := <-s.details[code]
	if p == nil {
		return nil, errors.New("missing")
	}
	return p, nil
}

func TestSelector_LaterSelectionWins(t *testing.T) {
	src := &stubSource{details: map[int]chan *Province{1: make(chan *Province), 2: make(chan *Province)}}
	s := NewSelector(src)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.SelectProvince(ctx, 1)
	}()

	// wait until the first selection is in flight
	require.Eventually(t, func() bool { return s.Loading() }, time.Second, time.Millisecond)

	second := make(chan struct{})
	go func() {
		defer close(second)
		_, _ = s.SelectProvince(ctx, 2)
	}()
	require.Eventually(t, func() bool { return s.Selection().ProvinceCode == 2 }, time.Second, time.Millisecond)

	src.details[2] <- &Province{Name: "Second", Code: 2, Districts: []District{{Name: "D", Code: 9, Wards: []Ward{{Name: "W", Code: 5}}}}}
	<-second
	src.details[1] <- &hanoi
	<-done

	assert.Equal(t, "Second", s.Selection().Province)
	assert.Len(t, s.Wards(), 1)
}
