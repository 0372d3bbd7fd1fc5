package jenkins

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenJobs(t *testing.T) {
	tree := []Job{
		{Name: "standalone", FullName: "standalone"},
		{Name: "team", FullName: "team", Jobs: []Job{
			{Name: "app", FullName: "team/app"},
			{Name: "sub", FullName: "team/sub", Jobs: []Job{
				{Name: "deep", FullName: "team/sub/deep"},
			}},
		}},
		{Name: "empty-folder", FullName: "empty-folder", Jobs: []Job{}},
	}

	leaves := FlattenJobs(tree)
	names := make([]string, len(leaves))
	for i, j := range leaves {
		names[i] = j.FullName
	}
	assert.Equal(t, []string{"standalone", "team/app", "team/sub/deep"}, names,
		"folders contribute only their children; empty folders contribute nothing")
}

func TestJobIsFolder_DistinguishesEmptyFromAbsent(t *testing.T) {
	var leaf, folder Job
	require.NoError(t, json.Unmarshal([]byte(`{"name":"app"}`), &leaf))
	require.NoError(t, json.Unmarshal([]byte(`{"name":"dir","jobs":[]}`), &folder))

	assert.False(t, leaf.IsFolder())
	assert.True(t, folder.IsFolder())
}

func TestJobTreeParam(t *testing.T) {
	assert.Equal(t, "jobs[name,fullName,url,color]", jobTreeParam(1))
	assert.Equal(t,
		"jobs[name,fullName,url,color,jobs[name,fullName,url,color]]",
		jobTreeParam(2))
}

func TestJobPath(t *testing.T) {
	assert.Equal(t, "/job/app", jobPath("app"))
	assert.Equal(t, "/job/team/job/app", jobPath("team/app"))
	assert.Equal(t, "/job/team/job/app", jobPath("/team/app/"))
	assert.Equal(t, "/job/my%20job", jobPath("my job"))
}

func TestNormalizeBuildRef(t *testing.T) {
	assert.Equal(t, "lastBuild", NormalizeBuildRef(""))
	assert.Equal(t, "lastBuild", NormalizeBuildRef("last"))
	assert.Equal(t, "lastBuild", NormalizeBuildRef("LAST"))
	assert.Equal(t, "42", NormalizeBuildRef("42"))
}

func TestListJobs_FlattensServerTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/json", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("tree"), "jobs[name,fullName,url,color")
		w.Write([]byte(`{"jobs":[
			{"name":"app","fullName":"app","color":"blue"},
			{"name":"team","fullName":"team","jobs":[
				{"name":"api","fullName":"team/api","color":"red"}
			]}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	jobs, err := c.ListJobs(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "app", jobs[0].FullName)
	assert.Equal(t, "team/api", jobs[1].FullName)
}

func TestTriggerBuild_WithoutParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/job/team/job/app/build", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Location", srv0(r)+"/queue/item/11/")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	queueURL, err := c.TriggerBuild(context.Background(), "team/app", nil)
	require.NoError(t, err)
	assert.Contains(t, queueURL, "/queue/item/11/")
}

// srv0 rebuilds the request's own base URL for Location headers.
func srv0(r *http.Request) string { return "http://" + r.Host }

func TestTriggerBuild_WithParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/job/app/buildWithParameters", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "main", r.PostFormValue("BRANCH"))
		w.Header().Set("Location", srv0(r)+"/queue/item/12/")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	queueURL, err := c.TriggerBuild(context.Background(), "app", map[string]string{"BRANCH": "main"})
	require.NoError(t, err)
	assert.Contains(t, queueURL, "/queue/item/12/")
}

func TestGetQueueItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/queue/item/42/api/json", r.URL.Path)
		w.Write([]byte(`{"id":42,"why":null,"executable":{"number":7,"url":"http://j/job/app/7/"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	item, err := c.GetQueueItem(context.Background(), 42)
	require.NoError(t, err)
	assert.EqualValues(t, 42, item.ID)
	require.NotNil(t, item.Executable)
	assert.Equal(t, 7, item.Executable.Number)
}

func TestGetBuild(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/job/app/lastBuild/api/json", r.URL.Path)
		w.Write([]byte(`{"number":7,"building":false,"result":"SUCCESS","duration":120000}`))
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	build, err := c.GetBuild(context.Background(), "app", "last")
	require.NoError(t, err)
	assert.Equal(t, 7, build.Number)
	assert.Equal(t, "SUCCESS", build.Result)
}

func TestJobExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/job/present/api/json" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	exists, err := c.JobExists(context.Background(), "present")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.JobExists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFindJobsByRepo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/json":
			w.Write([]byte(`{"jobs":[
				{"name":"app","fullName":"app"},
				{"name":"other","fullName":"other"}
			]}`))
		case "/job/app/api/json":
			w.Write([]byte(`{"scm":{
				"userRemoteConfigs":[{"url":"git@github.com:acme/widget.git"}],
				"branches":[{"name":"*/main"}]
			}}`))
		case "/job/other/api/json":
			w.Write([]byte(`{"scm":{
				"userRemoteConfigs":[{"url":"https://github.com/acme/unrelated"}],
				"branches":[{"name":"*/main"}]
			}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv, Config{})
	matches, err := c.FindJobsByRepo(context.Background(), "https://github.com/acme/widget", "main", 3)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "app", matches[0].Job.FullName)
	assert.Equal(t, []string{"git@github.com:acme/widget.git"}, matches[0].Record.RepositoryURIs)

	// Branch filter excludes non-matching branches.
	matches, err = c.FindJobsByRepo(context.Background(), "https://github.com/acme/widget", "develop", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
