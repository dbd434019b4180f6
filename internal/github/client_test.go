package github_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/github"
	"github.com/mtlprog/pludo/internal/hostapi"
	"github.com/mtlprog/pludo/internal/poll"
)

var siteFiles = []domain.GeneratedFile{
	{Path: "package.json", Content: `{"name":"acme"}`},
	{Path: "src/App.jsx", Content: "export default () => null\n"},
	{Path: "knowledge.txt", Content: "Q: Hours?\nA: 9-5\n"},
}

func newTestClient(t *testing.T, fake *fakeGitHub, org string) (*github.Client, *poll.FakeClock) {
	t.Helper()
	srv := fake.server()
	t.Cleanup(srv.Close)

	clock := poll.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := github.NewClient(github.Options{
		BaseURL:     srv.URL,
		Token:       "pat-123",
		Org:         org,
		HTTPClient:  srv.Client(),
		Clock:       clock,
		SettleDelay: 2 * time.Second,
		MaxBlobSize: 1 << 10,
	})
	return c, clock
}

func TestCreateRepository_PrivateAutoInit(t *testing.T) {
	fake := newFakeGitHub(t)
	c, _ := newTestClient(t, fake, "")

	repo, err := c.CreateRepository(context.Background(), "PLUDO Acme  Support!!", "Acme support agent")
	require.NoError(t, err)

	assert.Equal(t, "acme/pludo-acme-support", repo.FullName)
	assert.Equal(t, "https://github.com/acme/pludo-acme-support", repo.HTMLURL)
	assert.Equal(t, true, fake.createReq["private"])
	assert.Equal(t, true, fake.createReq["auto_init"])
	assert.Equal(t, "token pat-123", fake.authHeader)
}

func TestCreateRepository_UnderOrg(t *testing.T) {
	fake := newFakeGitHub(t)
	c, _ := newTestClient(t, fake, "pludo-sites")

	repo, err := c.CreateRepository(context.Background(), "acme", "")
	require.NoError(t, err)
	assert.Equal(t, "pludo-sites/acme", repo.FullName)
}

func TestCreateRepository_PermissionError(t *testing.T) {
	fake := newFakeGitHub(t)
	fake.failOn = "create"
	fake.failStatus = http.StatusForbidden
	fake.failBody = `{"message":"Resource not accessible by personal access token"}`
	c, _ := newTestClient(t, fake, "")

	_, err := c.CreateRepository(context.Background(), "acme", "")
	require.ErrorIs(t, err, hostapi.ErrPermission)
	assert.Contains(t, err.Error(), "Resource not accessible")
	assert.Contains(t, err.Error(), "repo scope")
}

func TestCreateRepository_ValidationDetails(t *testing.T) {
	fake := newFakeGitHub(t)
	fake.failOn = "create"
	fake.failStatus = http.StatusUnprocessableEntity
	fake.failBody = `{"message":"Repository creation failed.","errors":[{"resource":"Repository","code":"custom","field":"name","message":"name already exists on this account"}]}`
	c, _ := newTestClient(t, fake, "")

	_, err := c.CreateRepository(context.Background(), "acme", "")
	require.ErrorIs(t, err, hostapi.ErrValidation)
	assert.Contains(t, err.Error(), "name already exists on this account")
}

func TestUploadFiles_CommitsOnMain(t *testing.T) {
	fake := newFakeGitHub(t)
	before := fake.seed("main")
	c, clock := newTestClient(t, fake, "")

	sha, err := c.UploadFiles(context.Background(), "acme/site", siteFiles, "Deploy agent")
	require.NoError(t, err)

	assert.Equal(t, sha, fake.ref("main"))
	assert.NotEqual(t, before, sha)

	tree := fake.treeAt("main")
	for _, f := range siteFiles {
		assert.Equal(t, f.Content, tree[f.Path], f.Path)
	}
	assert.Equal(t, "# site\n", tree["README.md"], "untouched files are preserved from the base tree")
	assert.Equal(t, 2*time.Second, clock.Sleeps()[0], "settle delay precedes upload")
	assert.Equal(t, "token pat-123", fake.authHeader)
}

func TestUploadFiles_FallsBackToMaster(t *testing.T) {
	fake := newFakeGitHub(t)
	fake.seed("master")
	c, _ := newTestClient(t, fake, "")

	sha, err := c.UploadFiles(context.Background(), "acme/site", siteFiles, "Deploy agent")
	require.NoError(t, err)
	assert.Equal(t, sha, fake.ref("master"))
}

func TestUploadFiles_NoBranch(t *testing.T) {
	fake := newFakeGitHub(t)
	c, _ := newTestClient(t, fake, "")

	_, err := c.UploadFiles(context.Background(), "acme/site", siteFiles, "Deploy agent")
	require.ErrorIs(t, err, github.ErrNoBranch)
}

func TestUploadFiles_FailureLeavesRefUntouched(t *testing.T) {
	cases := []struct {
		name   string
		failOn string
		status int
		want   error
	}{
		{"second blob", "blob:2", http.StatusForbidden, hostapi.ErrPermission},
		{"tree", "tree", http.StatusUnprocessableEntity, hostapi.ErrValidation},
		{"commit", "commit", http.StatusInternalServerError, hostapi.ErrGeneric},
		{"ref", "ref", http.StatusConflict, hostapi.ErrConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeGitHub(t)
			before := fake.seed("main")
			fake.failOn = tc.failOn
			fake.failStatus = tc.status
			fake.failBody = `{"message":"injected failure"}`
			c, _ := newTestClient(t, fake, "")

			_, err := c.UploadFiles(context.Background(), "acme/site", siteFiles, "Deploy agent")
			require.ErrorIs(t, err, tc.want)

			assert.Equal(t, before, fake.ref("main"))
			assert.Equal(t, map[string]string{"README.md": "# site\n"}, fake.treeAt("main"))
		})
	}
}

func TestUploadFiles_RejectsOversizedFile(t *testing.T) {
	fake := newFakeGitHub(t)
	fake.seed("main")
	c, clock := newTestClient(t, fake, "")

	big := domain.GeneratedFile{Path: "big.bin", Content: strings.Repeat("x", 1<<10+1)}
	_, err := c.UploadFiles(context.Background(), "acme/site", []domain.GeneratedFile{big}, "Deploy agent")

	require.ErrorIs(t, err, github.ErrFileTooLarge)
	assert.Empty(t, clock.Sleeps(), "no network work before validation")
}

func TestUploadFiles_InvalidFullName(t *testing.T) {
	c, _ := newTestClient(t, newFakeGitHub(t), "")

	_, err := c.UploadFiles(context.Background(), "no-owner", siteFiles, "x")
	require.ErrorIs(t, err, github.ErrInvalidRepoName)
}

func TestDeleteRepository(t *testing.T) {
	fake := newFakeGitHub(t)
	fake.seed("main")
	c, _ := newTestClient(t, fake, "")

	require.NoError(t, c.DeleteRepository(context.Background(), "acme/site"))

	err := c.DeleteRepository(context.Background(), "acme/site")
	require.ErrorIs(t, err, hostapi.ErrNotFound)
}

func TestEnsureRepository_CreatesThenReuses(t *testing.T) {
	fake := newFakeGitHub(t)
	c, _ := newTestClient(t, fake, "")
	ctx := context.Background()

	first, err := c.EnsureRepository(ctx, "pludo-acme", "Acme support agent")
	require.NoError(t, err)
	second, err := c.EnsureRepository(ctx, "pludo-acme", "Acme support agent")
	require.NoError(t, err)

	assert.Equal(t, "acme/pludo-acme", first.FullName)
	assert.Equal(t, first.FullName, second.FullName)
	assert.Equal(t, 1, fake.creates)
}

func TestEnsureRepository_UnderOrgSkipsUserLookup(t *testing.T) {
	fake := newFakeGitHub(t)
	c, _ := newTestClient(t, fake, "pludo-sites")

	repo, err := c.EnsureRepository(context.Background(), "pludo-acme", "")
	require.NoError(t, err)

	assert.Equal(t, "pludo-sites/pludo-acme", repo.FullName)
}
