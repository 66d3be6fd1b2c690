package importer_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing_intake/internal/app"
	"listing_intake/internal/domain"
	"listing_intake/internal/form"
	"listing_intake/internal/importer"
)

const doc = `
- title: Lagoon
  category: RESORT
  "resort[resortType]": VILLA
  "resort[roomType]": Suite
  "resort[capacity]": "4"
- title: Shop
  category: CONVENIENCE_SERVICE
  convenience:
    serviceType: LAUNDRY
    serviceDescription: Wash and fold
    hourlyRate: 2000
- title: Broken
  category: RESORT
  "resort[resortType]": VILLA
`

type memRepo struct {
	mu   sync.Mutex
	rows map[string]domain.Listing
	err  error
}

func (m *memRepo) Insert(ctx context.Context, l domain.Listing) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[l.ID] = l
	return nil
}
func (m *memRepo) Update(ctx context.Context, l domain.Listing) error { return m.Insert(ctx, l) }
func (m *memRepo) Get(ctx context.Context, id string) (domain.Listing, error) {
	return domain.Listing{}, domain.ErrNotFound
}

type rejections struct {
	mu    sync.Mutex
	items []int
}

func (r *rejections) LogRejection(ctx context.Context, source string, item int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return nil
}

func TestParse(t *testing.T) {
	items, err := importer.Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "VILLA", items[0]["resort[resortType]"])

	fromJSON, err := importer.Parse([]byte(`[{"title":"x","category":"RESORT"}]`))
	require.NoError(t, err)
	assert.Len(t, fromJSON, 1)

	_, err = importer.Parse([]byte("title: not a list"))
	assert.Error(t, err)
}

func TestRunCountsOutcomes(t *testing.T) {
	items, err := importer.Parse([]byte(doc))
	require.NoError(t, err)

	repo := &memRepo{rows: map[string]domain.Listing{}}
	rej := &rejections{}
	r := &importer.Runner{
		Creator:   app.NewListingService(repo, nil, nil),
		Rejection: rej,
		Workers:   2,
		Source:    "seed.yaml",
	}
	sum, err := r.Run(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, importer.Summary{Created: 2, Rejected: 1}, sum)
	assert.Equal(t, []int{2}, rej.items)
	assert.Len(t, repo.rows, 2)
	for _, l := range repo.rows {
		if l.Category == domain.ConvenienceService {
			assert.Equal(t, 2000, l.Details["hourlyRate"])
		}
	}
}

func TestRunStoreFailure(t *testing.T) {
	items, _ := importer.Parse([]byte(doc))
	repo := &memRepo{rows: map[string]domain.Listing{}, err: errors.New("db down")}
	r := &importer.Runner{Creator: app.NewListingService(repo, nil, nil), Workers: 1}
	sum, err := r.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.Failed)
	assert.Equal(t, int64(1), sum.Rejected)
}

type slowCreator struct {
	inFlight, peak int64
}

func (s *slowCreator) Create(ctx context.Context, _ *form.Submission, _ []app.File) (domain.Listing, error) {
	n := atomic.AddInt64(&s.inFlight, 1)
	defer atomic.AddInt64(&s.inFlight, -1)
	for {
		p := atomic.LoadInt64(&s.peak)
		if n <= p || atomic.CompareAndSwapInt64(&s.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return domain.Listing{ID: "x"}, nil
}

func TestRunBoundsConcurrency(t *testing.T) {
	items := make([]map[string]any, 20)
	for i := range items {
		items[i] = map[string]any{"title": "t"}
	}
	c := &slowCreator{}
	sum, err := (&importer.Runner{Creator: c, Workers: 3}).Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, int64(20), sum.Created)
	assert.LessOrEqual(t, atomic.LoadInt64(&c.peak), int64(3))
}
