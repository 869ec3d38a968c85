package param

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.linkedin.com/in/jane-doe/recent-activity/all/", "jane-doe"},
		{"https://www.linkedin.com/company/acme/posts/", "acme"},
		{"https://example.com/feed/", "example.com_feed"},
		{"https://www.linkedin.com/in/%E6%9D%8E/recent-activity/", "profile"},
		{"not a url", "not_a_url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NameFor(tt.url), tt.url)
	}
}

func TestJobIsValid(t *testing.T) {
	tests := []struct {
		name    string
		job     Job
		wantErr bool
	}{
		{"ok", Job{URL: "https://www.linkedin.com/in/x/", OutDir: "out/x"}, false},
		{"empty url", Job{OutDir: "out"}, true},
		{"ftp", Job{URL: "ftp://host/x", OutDir: "out"}, true},
		{"no host", Job{URL: "https:///x", OutDir: "out"}, true},
		{"no out dir", Job{URL: "https://www.linkedin.com/in/x/"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.IsValid()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewJob(t *testing.T) {
	j := NewJob("https://www.linkedin.com/in/jane-doe/recent-activity/all/", "output")
	assert.Equal(t, "jane-doe", j.Name)
	assert.Equal(t, filepath.Join("output", "jane-doe"), j.OutDir)
	assert.NoError(t, j.IsValid())
}

func TestLoadJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- url: https://www.linkedin.com/in/jane-doe/recent-activity/all/
- name: bob
  url: https://www.linkedin.com/in/bob-smith/recent-activity/all/
  out_dir: /data/bob
`), 0o644))

	jobs, err := LoadJobs(path, "output")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "jane-doe", jobs[0].Name)
	assert.Equal(t, filepath.Join("output", "jane-doe"), jobs[0].OutDir)
	assert.Equal(t, "bob", jobs[1].Name)
	assert.Equal(t, "/data/bob", jobs[1].OutDir)
}

func TestLoadJobsRejectsBadURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`[{"url": "mailto:someone"}]`), 0o644))

	_, err := LoadJobs(path, "output")
	assert.ErrorContains(t, err, "jobs[0]")
}
