/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package undertow

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// HttpHandlerRegistrationInfo identifies a handler on a shared server.
// At most one handler is active per (Uri, MethodRestrict, TLS config).
//
// HttpHandlerRegistrationInfo 处理器注册信息
type HttpHandlerRegistrationInfo struct {
	// Uri is the full endpoint uri without the component scheme, e.g. http://0.0.0.0:8080/hello
	Uri              string
	MethodRestrict   string
	MatchOnUriPrefix bool

	parsed *url.URL
}

// NewRegistrationInfo parses uri, which must be absolute with a host and port.
func NewRegistrationInfo(uri, methodRestrict string, matchOnUriPrefix bool) (*HttpHandlerRegistrationInfo, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("uri %s has no host", uri)
	}
	if _, _, err = net.SplitHostPort(u.Host); err != nil {
		return nil, fmt.Errorf("uri %s has no port: %w", uri, err)
	}
	return &HttpHandlerRegistrationInfo{
		Uri:              uri,
		MethodRestrict:   strings.ToUpper(methodRestrict),
		MatchOnUriPrefix: matchOnUriPrefix,
		parsed:           u,
	}, nil
}

// Addr is host:port.
func (i *HttpHandlerRegistrationInfo) Addr() string {
	return i.parsed.Host
}

// Path is the uri path, "/" when empty.
func (i *HttpHandlerRegistrationInfo) Path() string {
	if i.parsed.Path == "" {
		return "/"
	}
	return i.parsed.Path
}

// Methods is MethodRestrict split on commas, nil when unrestricted.
func (i *HttpHandlerRegistrationInfo) Methods() []string {
	var methods []string
	for _, m := range strings.Split(i.MethodRestrict, ",") {
		if m = strings.TrimSpace(m); m != "" {
			methods = append(methods, m)
		}
	}
	return methods
}

func (i *HttpHandlerRegistrationInfo) String() string {
	return fmt.Sprintf("HttpHandlerRegistrationInfo[uri=%s, methodRestrict=%s, matchOnUriPrefix=%t]",
		i.Uri, i.MethodRestrict, i.MatchOnUriPrefix)
}

type registrationKey struct {
	uri            string
	methodRestrict string
	tls            *tls.Config
}

func (i *HttpHandlerRegistrationInfo) key(tlsConfig *tls.Config) registrationKey {
	return registrationKey{uri: i.Uri, methodRestrict: i.MethodRestrict, tls: tlsConfig}
}

// routerPath converts {name} segments to httprouter's :name.
func routerPath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") && len(s) > 2 {
			segments[i] = ":" + s[1:len(s)-1]
		}
	}
	return strings.Join(segments, "/")
}
