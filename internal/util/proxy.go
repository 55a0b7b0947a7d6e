package util

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc builds an http.Transport proxy function. Hosts listed in
// noProxy (comma separated, suffix match) bypass the proxy. With no proxy
// URLs configured the environment decides.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	bypass := splitHosts(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		if matchesHost(req.URL.Hostname(), bypass) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

func splitHosts(list string) []string {
	var hosts []string
	for _, h := range strings.Split(list, ",") {
		h = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "."))
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

func matchesHost(host string, patterns []string) bool {
	host = strings.ToLower(host)
	for _, p := range patterns {
		if p == "*" || host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}
