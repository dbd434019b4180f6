package github_test

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type fakeCommit struct {
	tree    string
	parents []string
}

// fakeGitHub is an in-memory git object store behind the REST routes the
// client uses. failOn names an operation that answers failStatus instead.
type fakeGitHub struct {
	t *testing.T

	mu         sync.Mutex
	seq        int
	blobs      map[string]string
	trees      map[string]map[string]string
	commits    map[string]fakeCommit
	refs       map[string]string
	repos      map[string]bool
	authHeader string
	createReq  map[string]any
	creates    int
	blobCalls  int

	failOn     string
	failStatus int
	failBody   string
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	f := &fakeGitHub{
		t:       t,
		blobs:   map[string]string{},
		trees:   map[string]map[string]string{},
		commits: map[string]fakeCommit{},
		refs:    map[string]string{},
		repos:   map[string]bool{},
	}
	return f
}

// seed creates an auto-initialised repository with README.md on branch.
func (f *fakeGitHub) seed(branch string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repos["acme/site"] = true
	blob := f.nextID("blob")
	f.blobs[blob] = "# site\n"
	tree := f.nextID("tree")
	f.trees[tree] = map[string]string{"README.md": blob}
	commit := f.nextID("commit")
	f.commits[commit] = fakeCommit{tree: tree}
	f.refs[branch] = commit
	return commit
}

func (f *fakeGitHub) nextID(kind string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", kind, f.seq)
}

func (f *fakeGitHub) fail(w http.ResponseWriter, op string) bool {
	if f.failOn != op {
		return false
	}
	w.WriteHeader(f.failStatus)
	w.Write([]byte(f.failBody))
	return true
}

func (f *fakeGitHub) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeGitHub) server() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /user/repos", f.handleCreateRepo)
	mux.HandleFunc("POST /orgs/{org}/repos", f.handleCreateRepo)

	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, http.StatusOK, map[string]string{"login": "acme"})
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := r.PathValue("owner") + "/" + r.PathValue("repo")
		if !f.repos[name] {
			f.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{
			"full_name":      name,
			"html_url":       "https://github.com/" + name,
			"default_branch": "main",
			"private":        true,
		})
	})

	mux.HandleFunc("DELETE /repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail(w, "delete") {
			return
		}
		name := r.PathValue("owner") + "/" + r.PathValue("repo")
		if !f.repos[name] {
			f.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		delete(f.repos, name)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/git/ref/heads/{branch}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.authHeader = r.Header.Get("Authorization")
		sha, ok := f.refs[r.PathValue("branch")]
		if !ok {
			f.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{
			"ref":    "refs/heads/" + r.PathValue("branch"),
			"object": map[string]string{"sha": sha},
		})
	})

	mux.HandleFunc("GET /repos/{owner}/{repo}/git/commits/{sha}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c, ok := f.commits[r.PathValue("sha")]
		if !ok {
			f.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{"sha": r.PathValue("sha"), "tree": map[string]string{"sha": c.tree}})
	})

	mux.HandleFunc("POST /repos/{owner}/{repo}/git/blobs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.blobCalls++
		if f.failOn == fmt.Sprintf("blob:%d", f.blobCalls) && f.fail(w, f.failOn) {
			return
		}
		var req struct {
			Content  string `json:"content"`
			Encoding string `json:"encoding"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Encoding != "base64" {
			f.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "bad encoding"})
			return
		}
		raw, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			f.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "bad base64"})
			return
		}
		sha := f.nextID("blob")
		f.blobs[sha] = string(raw)
		f.writeJSON(w, http.StatusCreated, map[string]string{"sha": sha})
	})

	mux.HandleFunc("POST /repos/{owner}/{repo}/git/trees", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail(w, "tree") {
			return
		}
		var req struct {
			BaseTree string `json:"base_tree"`
			Tree     []struct {
				Path string `json:"path"`
				SHA  string `json:"sha"`
			} `json:"tree"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		entries := map[string]string{}
		for p, sha := range f.trees[req.BaseTree] {
			entries[p] = sha
		}
		for _, e := range req.Tree {
			if _, ok := f.blobs[e.SHA]; !ok {
				f.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "unknown blob"})
				return
			}
			entries[e.Path] = e.SHA
		}
		sha := f.nextID("tree")
		f.trees[sha] = entries
		f.writeJSON(w, http.StatusCreated, map[string]string{"sha": sha})
	})

	mux.HandleFunc("POST /repos/{owner}/{repo}/git/commits", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail(w, "commit") {
			return
		}
		var req struct {
			Tree    string   `json:"tree"`
			Parents []string `json:"parents"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		sha := f.nextID("commit")
		f.commits[sha] = fakeCommit{tree: req.Tree, parents: req.Parents}
		f.writeJSON(w, http.StatusCreated, map[string]string{"sha": sha})
	})

	mux.HandleFunc("PATCH /repos/{owner}/{repo}/git/refs/heads/{branch}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fail(w, "ref") {
			return
		}
		var req struct {
			SHA   string `json:"sha"`
			Force bool   `json:"force"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		branch := r.PathValue("branch")
		c := f.commits[req.SHA]
		if !req.Force && (len(c.parents) == 0 || c.parents[0] != f.refs[branch]) {
			f.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Update is not a fast forward"})
			return
		}
		f.refs[branch] = req.SHA
		f.writeJSON(w, http.StatusOK, map[string]any{"ref": "refs/heads/" + branch, "object": map[string]string{"sha": req.SHA}})
	})

	return httptest.NewServer(mux)
}

func (f *fakeGitHub) handleCreateRepo(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authHeader = r.Header.Get("Authorization")
	if f.fail(w, "create") {
		return
	}
	var req map[string]any
	json.NewDecoder(r.Body).Decode(&req)
	f.createReq = req
	f.creates++

	owner := "acme"
	if org := r.PathValue("org"); org != "" {
		owner = org
	}
	name := owner + "/" + req["name"].(string)
	f.repos[name] = true
	f.writeJSON(w, http.StatusCreated, map[string]any{
		"full_name":      name,
		"html_url":       "https://github.com/" + name,
		"default_branch": "main",
		"private":        true,
	})
}

// treeAt returns path -> content for the tree of the commit a branch points at.
func (f *fakeGitHub) treeAt(branch string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for p, sha := range f.trees[f.commits[f.refs[branch]].tree] {
		out[p] = f.blobs[sha]
	}
	return out
}

func (f *fakeGitHub) ref(branch string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[branch]
}
