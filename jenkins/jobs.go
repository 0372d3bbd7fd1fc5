package jenkins

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/buildmind/jenkins-mcp/scm"
)

// Job is one node of the Jenkins job tree. A node whose Jobs field is
// present (even empty) is a folder; only nodes without it are buildable
// leaf jobs.
type Job struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	URL      string `json:"url"`
	Color    string `json:"color"`
	Class    string `json:"_class"`
	Jobs     []Job  `json:"jobs,omitempty"`
}

// IsFolder reports whether the node carries a nested jobs collection.
// JSON `[]` decodes to a non-nil empty slice, so an empty folder is still
// a folder and contributes no leaves.
func (j Job) IsFolder() bool { return j.Jobs != nil }

// FlattenJobs walks a job tree depth-first and returns only the leaf jobs.
// Folders contribute none of themselves, only their recursively flattened
// children.
func FlattenJobs(jobs []Job) []Job {
	var leaves []Job
	for _, j := range jobs {
		if j.IsFolder() {
			leaves = append(leaves, FlattenJobs(j.Jobs)...)
			continue
		}
		leaves = append(leaves, j)
	}
	return leaves
}

// jobTreeParam builds the nested Jenkins tree parameter selecting job fields
// down to the given folder depth.
func jobTreeParam(depth int) string {
	const fields = "name,fullName,url,color"
	spec := fields
	for i := 1; i < depth; i++ {
		spec = fields + ",jobs[" + spec + "]"
	}
	return "jobs[" + spec + "]"
}

// jobPath converts a job full name ("folder/sub/app") to its REST path
// ("/job/folder/job/sub/job/app"), escaping each segment.
func jobPath(fullName string) string {
	var b strings.Builder
	for _, seg := range strings.Split(strings.Trim(fullName, "/"), "/") {
		if seg == "" {
			continue
		}
		b.WriteString("/job/")
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}

// ListJobs fetches the job tree in a single request using the tree
// parameter, nested to depth folder levels, and returns the flattened
// leaf jobs.
func (c *Client) ListJobs(ctx context.Context, depth int) ([]Job, error) {
	if depth <= 0 {
		depth = 3
	}
	params := url.Values{"tree": {jobTreeParam(depth)}}
	var root struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.GetJSON(ctx, "/api/json", params, &root); err != nil {
		return nil, err
	}
	return FlattenJobs(root.Jobs), nil
}

// GetJob fetches a job's detail document as raw JSON. tree optionally limits
// the returned fields server-side.
func (c *Client) GetJob(ctx context.Context, fullName, tree string) (map[string]any, error) {
	var params url.Values
	if tree != "" {
		params = url.Values{"tree": {tree}}
	}
	var out map[string]any
	if err := c.GetJSON(ctx, jobPath(fullName)+"/api/json", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// JobExists probes a job with a HEAD request. A 2xx or 3xx status means the
// job exists, 404 means it does not; any other status is an error.
func (c *Client) JobExists(ctx context.Context, fullName string) (bool, error) {
	status, _, err := c.Head(ctx, jobPath(fullName)+"/api/json")
	if err != nil {
		return false, err
	}
	switch {
	case status >= 200 && status < 400:
		return true, nil
	case status == 404:
		return false, nil
	default:
		return false, classifyStatus(status, "")
	}
}

// Build is one execution of a job.
type Build struct {
	Number            int    `json:"number"`
	URL               string `json:"url"`
	Building          bool   `json:"building"`
	Result            string `json:"result"`
	Timestamp         int64  `json:"timestamp"`
	Duration          int64  `json:"duration"`
	EstimatedDuration int64  `json:"estimatedDuration"`
	FullDisplayName   string `json:"fullDisplayName"`
}

// NormalizeBuildRef maps caller-facing build references onto Jenkins path
// segments: an empty reference or "last" means the latest build.
func NormalizeBuildRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, "last") || strings.EqualFold(ref, "lastBuild") {
		return "lastBuild"
	}
	return ref
}

// GetBuild fetches one build of a job. buildRef is an integer build number
// or "last".
func (c *Client) GetBuild(ctx context.Context, job, buildRef string) (*Build, error) {
	var b Build
	path := jobPath(job) + "/" + NormalizeBuildRef(buildRef) + "/api/json"
	if err := c.GetJSON(ctx, path, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// TriggerBuild requests a new build of a job and returns the queue item URL
// Jenkins reports in the Location header. Parameterized jobs go through
// buildWithParameters with a form-encoded body.
func (c *Client) TriggerBuild(ctx context.Context, job string, params map[string]string) (string, error) {
	endpoint := jobPath(job) + "/build"
	form := url.Values{}
	if len(params) > 0 {
		endpoint = jobPath(job) + "/buildWithParameters"
		for k, v := range params {
			form.Set(k, v)
		}
	}
	_, location, err := c.PostForm(ctx, endpoint, nil, form)
	if err != nil {
		return "", err
	}
	return location, nil
}

// QueueItem is a pending build request. Executable is set once the item has
// been assigned a build number.
type QueueItem struct {
	ID         int64  `json:"id"`
	Why        string `json:"why"`
	Blocked    bool   `json:"blocked"`
	Stuck      bool   `json:"stuck"`
	Cancelled  bool   `json:"cancelled"`
	Executable *struct {
		Number int    `json:"number"`
		URL    string `json:"url"`
	} `json:"executable"`
}

// GetQueueItem fetches a queue item by ID.
func (c *Client) GetQueueItem(ctx context.Context, id int64) (*QueueItem, error) {
	var item QueueItem
	path := fmt.Sprintf("/queue/item/%d/api/json", id)
	if err := c.GetJSON(ctx, path, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// scmTree limits per-job detail fetches to the SCM-related fields the
// matcher consumes.
const scmTree = "scm[userRemoteConfigs[url],branches[name]]," +
	"lastBuild[actions[lastBuiltRevision[SHA1,branch[name]],remoteUrls]]"

// scmFetchConcurrency bounds the per-leaf detail fan-out in FindJobsByRepo.
const scmFetchConcurrency = 4

// RepoMatch pairs a leaf job with the SCM record that matched.
type RepoMatch struct {
	Job    Job
	Record scm.Record
}

// FindJobsByRepo flattens the job tree and returns the leaves whose recorded
// repository URL matches repoURL under SCM normalization, optionally further
// filtered by branch. Leaves that disappear between listing and detail fetch
// are skipped.
func (c *Client) FindJobsByRepo(ctx context.Context, repoURL, branch string, depth int) ([]RepoMatch, error) {
	leaves, err := c.ListJobs(ctx, depth)
	if err != nil {
		return nil, err
	}

	records := make([]*scm.Record, len(leaves))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scmFetchConcurrency)
	for i, job := range leaves {
		g.Go(func() error {
			raw, err := c.GetJob(gctx, job.FullName, scmTree)
			if err != nil {
				if IsNotFound(err) {
					return nil
				}
				return err
			}
			rec := scm.ExtractRecord(raw)
			records[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var matches []RepoMatch
	for i, job := range leaves {
		rec := records[i]
		if rec == nil || !rec.MatchesRepo(repoURL) {
			continue
		}
		if branch != "" && !rec.MatchesBranch(branch) {
			continue
		}
		matches = append(matches, RepoMatch{Job: job, Record: *rec})
	}
	return matches, nil
}
