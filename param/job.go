package param

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Job 一个待采集的主页动态页
type Job struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
	// OutDir 输出目录,为空时使用 <output.directory>/<name>
	OutDir string `yaml:"out_dir" json:"out_dir"`
}

func (j *Job) IsValid() error {
	if j.URL == "" {
		return errors.New("job url is empty")
	}
	u, err := url.Parse(j.URL)
	if err != nil {
		return fmt.Errorf("job url %q: %w", j.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("job url %q: scheme must be http or https", j.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("job url %q: missing host", j.URL)
	}
	if j.OutDir == "" {
		return fmt.Errorf("job %q: output directory is empty", j.Name)
	}
	return nil
}

// NewJob builds a job for rawURL whose output lands in baseDir/<name>.
func NewJob(rawURL, baseDir string) *Job {
	name := NameFor(rawURL)
	return &Job{Name: name, URL: rawURL, OutDir: filepath.Join(baseDir, name)}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NameFor derives a folder name from a profile URL: the slug after /in/ or
// /company/ when present, else the host and path.
func NameFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return sanitize(rawURL)
	}
	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	for i, p := range parts {
		if (p == "in" || p == "company") && i+1 < len(parts) {
			if name := sanitize(parts[i+1]); name != "" {
				return name
			}
		}
	}
	return sanitize(strings.Join(append([]string{u.Host}, parts...), "_"))
}

func sanitize(s string) string {
	s = unsafeName.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "profile"
	}
	return s
}

// LoadJobs reads a YAML (or JSON) list of jobs. Jobs without an output
// directory are placed under baseDir.
func LoadJobs(path, baseDir string) ([]*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}
	var jobs []*Job
	if err := yaml.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("parse jobs file: %w", err)
	}
	for i, j := range jobs {
		if j.Name == "" {
			j.Name = NameFor(j.URL)
		}
		if j.OutDir == "" {
			j.OutDir = filepath.Join(baseDir, j.Name)
		}
		if err := j.IsValid(); err != nil {
			return nil, fmt.Errorf("jobs[%d]: %w", i, err)
		}
	}
	return jobs, nil
}
