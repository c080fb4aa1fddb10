package server

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

type mount struct {
	path    string
	handler http.Handler
}

// routers is the table of mounted routers, longest path first.
type routers []mount

func cleanMountPath(path string) string {
	path = "/" + strings.Trim(path, "/")
	return path
}

func (rs routers) add(path string, h http.Handler) routers {
	path = cleanMountPath(path)
	out := rs.remove(path)
	out = append(out, mount{path: path, handler: h})
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].path) > len(out[j].path)
	})
	return out
}

func (rs routers) remove(path string) routers {
	path = cleanMountPath(path)
	out := make(routers, 0, len(rs))
	for _, m := range rs {
		if m.path != path {
			out = append(out, m)
		}
	}
	return out
}

// find returns the router mounted on the longest prefix of path.
func (rs routers) find(path string) (mount, bool) {
	for _, m := range rs {
		if m.path == "/" || path == m.path || strings.HasPrefix(path, m.path+"/") {
			return m, true
		}
	}
	return mount{}, false
}

// strip returns a shallow copy of r with prefix removed from its path.
func strip(prefix string, r *http.Request) *http.Request {
	if prefix == "/" {
		return r
	}
	p := strings.TrimPrefix(r.URL.Path, prefix)
	if p == "" {
		p = "/"
	}
	r2 := new(http.Request)
	*r2 = *r
	r2.URL = new(url.URL)
	*r2.URL = *r.URL
	r2.URL.Path = p
	r2.URL.RawPath = ""
	return r2
}
