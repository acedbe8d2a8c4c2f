package scrape_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/internal/scrape"
)

func TestSnapshotTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		want     time.Time
		wantSnap bool
	}{
		{
			name:     "standard snapshot",
			url:      "https://web.archive.org/web/20080301123456/http://example.com/listing/1",
			want:     time.Date(2008, 3, 1, 12, 34, 56, 0, time.UTC),
			wantSnap: true,
		},
		{
			name:     "snapshot with raw content flag",
			url:      "https://web.archive.org/web/20150610000000id_/https://example.com/listing/2",
			want:     time.Date(2015, 6, 10, 0, 0, 0, 0, time.UTC),
			wantSnap: true,
		},
		{
			name:     "live listing url",
			url:      "https://bringatrailer.com/listing/1969-camaro",
			wantSnap: false,
		},
		{
			name:     "archive url without timestamp",
			url:      "https://web.archive.org/web/http://example.com/",
			wantSnap: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := scrape.SnapshotTime(tt.url)
			require.Equal(t, tt.wantSnap, ok)
			if tt.wantSnap {
				assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestOriginalURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"http://example.com/listing/1",
		scrape.OriginalURL("https://web.archive.org/web/20080301123456/http://example.com/listing/1"),
	)
	assert.Equal(t,
		"https://bringatrailer.com/listing/1969-camaro",
		scrape.OriginalURL("https://bringatrailer.com/listing/1969-camaro"),
	)
}
