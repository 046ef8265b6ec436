package exposure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRational(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"12/1", 12, false},
		{"28/5", 5.6, false},
		{"4.5", 4.5, false},
		{"50", 50, false},
		{"1/0", 0, true},
		{"abc/1", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseRational(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, tt.raw)
	}
}

func TestParseCreateDateLayouts(t *testing.T) {
	tests := []string{
		"2021-09-22T15:08:33",
		"2021-09-22T15:08:33Z",
		"2021-09-22T15:08:33+01:00",
		"2021-09-22T15:08:33.123456",
		"2021-09-22",
	}
	for _, raw := range tests {
		_, ok := parseCreateDate(raw)
		assert.True(t, ok, raw)
	}

	_, ok := parseCreateDate("0000-00-00T99:99:99")
	assert.False(t, ok)
}

func record(name string) SidecarRecord {
	return SidecarRecord{
		Name:        name,
		CreateDate:  "2021-09-22T15:08:33",
		FocalLength: "12/1",
		FNumber:     "28/5",
		Camera:      "OLYMPUS E-M5 MARK III   ",
		Lens:        "OLYMPUS M.12-100mm F4.0",
		Flag:        "0",
		Keywords:    []string{"irina"},
	}
}

func TestNormalizeRecordsHappyPath(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	stats := &counters{}

	entries, err := normalizeRecords([]SidecarRecord{record("P9220001.jpg")}, cfg, stats)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "P9220001.jpg", e.Name)
	assert.Equal(t, time.Date(2021, 9, 22, 15, 8, 33, 0, time.UTC), e.CreateDate)
	assert.Equal(t, float64(12), e.FocalLength)
	assert.InDelta(t, 5.6, e.FNumber, 1e-9)
	assert.Equal(t, "OLYMPUS E-M5 MARK III", e.Camera, "trailing whitespace trimmed")
	assert.Equal(t, 2.0, e.CropFactor)
	assert.Equal(t, "24mm", e.EquivalentFocalLength)
	assert.Equal(t, "2021-09-22", e.Date)
	assert.Equal(t, []string{"irina"}, e.Keywords)
}

func TestNormalizeRecordsRoundsFocalLength(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	rec := record("P1.jpg")
	rec.FocalLength = "247/10" // 24.7

	entries, err := normalizeRecords([]SidecarRecord{rec}, cfg, &counters{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(25), entries[0].FocalLength)
}

func TestNormalizeRecordsInflatedFNumber(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	// values like 280 come from a known exporter defect; 28000 needs the
	// correction twice
	once := record("P1.jpg")
	once.FNumber = "280/1"
	twice := record("P2.jpg")
	twice.FNumber = "56000/1"

	entries, err := normalizeRecords([]SidecarRecord{once, twice}, cfg, &counters{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.InDelta(t, 2.8, entries[0].FNumber, 1e-9)
	assert.InDelta(t, 5.6, entries[1].FNumber, 1e-9)
}

func TestNormalizeRecordsDropsBadRows(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	stats := &counters{}

	good := record("GOOD.jpg")
	badDate := record("BADDATE.jpg")
	badDate.CreateDate = "not-a-date"
	badFlag := record("BADFLAG.jpg")
	badFlag.Flag = "maybe"

	entries, err := normalizeRecords([]SidecarRecord{good, badDate, badFlag}, cfg, stats)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "GOOD.jpg", entries[0].Name)
	assert.Equal(t, 1, stats.snapshot().BadDates)
}

func TestNormalizeRecordsAllDatesBad(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	r1 := record("P1.jpg")
	r1.CreateDate = "garbage"
	r2 := record("P2.jpg")
	r2.CreateDate = "also garbage"

	_, err := normalizeRecords([]SidecarRecord{r1, r2}, cfg, &counters{})
	assert.ErrorIs(t, err, ErrNoValidDates)
}

func TestNormalizeRecordsEmptyInput(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	entries, err := normalizeRecords(nil, cfg, &counters{})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestNormalizeRecordsDefaultCropFactor(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	rec := record("P1.jpg")
	rec.Camera = "UNKNOWN CAMERA"

	entries, err := normalizeRecords([]SidecarRecord{rec}, cfg, &counters{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1.0, entries[0].CropFactor)
	assert.Equal(t, "12mm", entries[0].EquivalentFocalLength)
}

func TestApplyDropFiltersFlag(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	entries := []LibraryEntry{
		{Name: "keep.jpg", Flag: 0},
		{Name: "reject.jpg", Flag: 2},
		{Name: "pick.jpg", Flag: 1},
	}
	kept := applyDropFilters(entries, cfg)

	require.Len(t, kept, 2)
	assert.Equal(t, "keep.jpg", kept[0].Name)
	assert.Equal(t, "pick.jpg", kept[1].Name)
}

func TestApplyDropFiltersUnknownFieldIgnored(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.DropFilters = map[string][]string{"Nonsense": {"x"}}

	entries := []LibraryEntry{{Name: "keep.jpg"}}
	kept := applyDropFilters(entries, cfg)
	assert.Len(t, kept, 1)
}
