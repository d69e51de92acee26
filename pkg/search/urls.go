package search

import (
	"net/url"
)

// Paths the service redirects between.
const (
	pathHome   = "/"
	pathSignin = "/signin"
	pathSearch = "/search"
)

// searchURL builds <host>/search?<param>=<value>.
func searchURL(host, param, value string) (string, error) {
	u, err := url.Parse(host)
	if err != nil {
		return "", urlError(err, "invalid host %q", host)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", urlError(nil, "invalid host %q", host)
	}
	u = u.JoinPath(pathSearch)
	u.RawQuery = url.Values{param: []string{value}}.Encode()
	return u.String(), nil
}

// pathOf returns the path component of a location reported by the browser.
func pathOf(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", urlError(err, "invalid location %q", location)
	}
	if u.Path == "" {
		return pathHome, nil
	}
	return u.Path, nil
}
