package scm

// Record is the source-control summary extracted from one job's API payload.
type Record struct {
	RepositoryURIs []string `json:"repositoryUris"`
	BranchSpecs    []string `json:"branchSpecs"`
	LastCommit     string   `json:"lastCommit,omitempty"`
}

// MatchesRepo reports whether any recorded repository URI normalizes to the
// same form as target.
func (r Record) MatchesRepo(target string) bool {
	for _, uri := range r.RepositoryURIs {
		if SameRepo(uri, target) {
			return true
		}
	}
	return false
}

// MatchesBranch reports whether any recorded branch spec matches the branch.
func (r Record) MatchesBranch(branch string) bool {
	for _, spec := range r.BranchSpecs {
		if BranchSpecMatches(spec, branch) {
			return true
		}
	}
	return false
}

// scmContainerKeys are the payload keys under which a "url" value denotes a
// repository rather than, say, the job's own web URL. Jenkins plugins nest
// SCM data differently (freestyle scm blocks, multibranch sources, build
// actions), so extraction walks the whole document.
var scmContainerKeys = map[string]bool{
	"scm":               true,
	"userRemoteConfigs": true,
	"source":            true,
	"sources":           true,
	"remoteConfigs":     true,
}

// ExtractRecord walks a job's decoded JSON payload and collects repository
// URIs, branch specs, and the last built commit. The walk is defensive: the
// payload shape varies by job type and plugin set, so it keys off field
// names rather than a fixed schema. Duplicates are dropped, order of first
// appearance is kept.
func ExtractRecord(raw any) Record {
	w := &recordWalker{
		seenURI:  make(map[string]bool),
		seenSpec: make(map[string]bool),
	}
	w.walk(raw, false)
	return w.record
}

type recordWalker struct {
	record   Record
	seenURI  map[string]bool
	seenSpec map[string]bool
}

func (w *recordWalker) addURI(uri string) {
	if uri == "" || w.seenURI[uri] {
		return
	}
	w.seenURI[uri] = true
	w.record.RepositoryURIs = append(w.record.RepositoryURIs, uri)
}

func (w *recordWalker) addSpec(spec string) {
	if spec == "" || w.seenSpec[spec] {
		return
	}
	w.seenSpec[spec] = true
	w.record.BranchSpecs = append(w.record.BranchSpecs, spec)
}

func (w *recordWalker) addBranchList(items []any) {
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if name, ok := m["name"].(string); ok {
				w.addSpec(name)
			}
		}
	}
}

func (w *recordWalker) walk(node any, inScm bool) {
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			switch key {
			case "url", "remoteUrl", "remote":
				if s, ok := val.(string); ok && inScm {
					w.addURI(s)
					continue
				}
			case "remoteUrls":
				if urls, ok := val.([]any); ok {
					for _, u := range urls {
						if s, ok := u.(string); ok {
							w.addURI(s)
						}
					}
					continue
				}
			case "SHA1", "sha1":
				if s, ok := val.(string); ok && w.record.LastCommit == "" {
					w.record.LastCommit = s
					continue
				}
			case "branches":
				if items, ok := val.([]any); ok {
					w.addBranchList(items)
					continue
				}
			case "branch":
				// lastBuiltRevision.branch is a list of {SHA1,name} pairs;
				// older payloads carry a single object instead.
				switch b := val.(type) {
				case []any:
					w.addBranchList(b)
					continue
				case map[string]any:
					if name, ok := b["name"].(string); ok {
						w.addSpec(name)
					}
					continue
				}
			}
			w.walk(val, inScm || scmContainerKeys[key])
		}
	case []any:
		for _, item := range v {
			w.walk(item, inScm)
		}
	}
}
