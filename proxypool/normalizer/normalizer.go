// Package normalizer turns raw candidates extracted by the scrapers into
// canonical proxy records. Identity fields (host, port) are validated strictly;
// metadata is mapped best-effort onto closed enums.
package normalizer

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
	"proxylist_generator/proxypool/model"
	"proxylist_generator/proxypool/scraper"
)

const (
	maxHostnameLen = 253
	maxLabelLen    = 63
)

// ValidationError 表示候选记录的 host 或 port 不合法。它只会被计数，不会向上传播。
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(true),
	idna.ValidateLabels(true),
	idna.VerifyDNSLength(true),
)

var defaultProtocols = map[string]model.Protocol{
	"http":    model.ProtocolHTTP,
	"https":   model.ProtocolHTTPS,
	"socks4":  model.ProtocolSOCKS4,
	"socks4a": model.ProtocolSOCKS4,
	"socks5":  model.ProtocolSOCKS5,
	"socks5h": model.ProtocolSOCKS5,
	"http/s":  model.ProtocolHTTPS,
	"connect": model.ProtocolHTTPS,
}

var defaultAnonymity = map[string]model.Anonymity{
	"transparent":     model.AnonymityTransparent,
	"anonymous":       model.AnonymityAnonymous,
	"anonymous proxy": model.AnonymityAnonymous,
	"elite":           model.AnonymityElite,
	"elite proxy":     model.AnonymityElite,
	"high anonymous":  model.AnonymityElite,
	"透明":              model.AnonymityTransparent,
	"普通匿名":            model.AnonymityAnonymous,
	"高匿名":             model.AnonymityElite,
}

// Tables 是某个代理源专用的查找表，优先于默认表。键必须是小写。
type Tables struct {
	Protocols map[string]model.Protocol
	Anonymity map[string]model.Anonymity
}

// Normalizer 把候选记录规范化为 ProxyRecord。注册完查找表之后 Normalize 可以并发调用。
type Normalizer struct {
	sources map[string]Tables
}

// New 创建一个带有内置代理源查找表的 Normalizer。
func New() *Normalizer {
	return &Normalizer{
		sources: map[string]Tables{
			scraper.SpysMeName: {
				Anonymity: map[string]model.Anonymity{
					"n": model.AnonymityTransparent,
					"a": model.AnonymityAnonymous,
					"h": model.AnonymityElite,
				},
			},
		},
	}
}

// WithTables 为一个代理源注册额外的查找表，返回 n 以便链式调用。
func (n *Normalizer) WithTables(source string, t Tables) *Normalizer {
	n.sources[source] = t
	return n
}

// Normalize 校验并规范化一个候选记录。失败时返回 *ValidationError。
func (n *Normalizer) Normalize(c model.Candidate, source string) (*model.ProxyRecord, error) {
	host, err := NormalizeHost(c.Host)
	if err != nil {
		return nil, err
	}
	port, err := NormalizePort(c.Port)
	if err != nil {
		return nil, err
	}

	tables := n.sources[source]
	return &model.ProxyRecord{
		Host:      host,
		Port:      port,
		Protocol:  lookupProtocol(tables.Protocols, c.Protocol),
		Country:   strings.TrimSpace(c.Country),
		Anonymity: lookupAnonymity(tables.Anonymity, c.Anonymity),
		Sources:   []string{source},
	}, nil
}

// NormalizeAll 规范化一个代理源的全部候选记录，返回通过的记录和被拒绝的数量。
func (n *Normalizer) NormalizeAll(candidates []model.Candidate, source string) ([]*model.ProxyRecord, int) {
	records := make([]*model.ProxyRecord, 0, len(candidates))
	rejected := 0
	for _, c := range candidates {
		rec, err := n.Normalize(c, source)
		if err != nil {
			rejected++
			continue
		}
		records = append(records, rec)
	}
	return records, rejected
}

// NormalizeHost validates host as an IPv4/IPv6 literal or a hostname and
// returns its canonical form.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", &ValidationError{Field: "host", Value: raw, Reason: "empty"}
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if addr.Zone() != "" {
			return "", &ValidationError{Field: "host", Value: raw, Reason: "zoned address"}
		}
		return addr.Unmap().String(), nil
	}
	if strings.Contains(host, ":") {
		return "", &ValidationError{Field: "host", Value: raw, Reason: "malformed IPv6 address"}
	}
	if allNumericLabels(host) {
		return "", &ValidationError{Field: "host", Value: raw, Reason: "malformed IPv4 address"}
	}

	ascii, err := hostProfile.ToASCII(strings.TrimSuffix(host, "."))
	if err != nil {
		return "", &ValidationError{Field: "host", Value: raw, Reason: err.Error()}
	}
	if len(ascii) > maxHostnameLen {
		return "", &ValidationError{Field: "host", Value: raw, Reason: "hostname too long"}
	}
	labels := strings.Split(ascii, ".")
	for _, label := range labels {
		if label == "" || len(label) > maxLabelLen {
			return "", &ValidationError{Field: "host", Value: raw, Reason: "bad label length"}
		}
	}
	if isDigits(labels[len(labels)-1]) {
		return "", &ValidationError{Field: "host", Value: raw, Reason: "numeric top-level label"}
	}
	return strings.ToLower(ascii), nil
}

// NormalizePort parses a decimal port in [1, 65535].
func NormalizePort(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" || !isDigits(s) {
		return 0, &ValidationError{Field: "port", Value: raw, Reason: "not a decimal number"}
	}
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, &ValidationError{Field: "port", Value: raw, Reason: "out of range 1-65535"}
	}
	return port, nil
}

func lookupProtocol(override map[string]model.Protocol, raw string) model.Protocol {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return model.ProtocolUnknown
	}
	if p, ok := override[key]; ok {
		return p
	}
	if p, ok := defaultProtocols[key]; ok {
		return p
	}
	return model.ProtocolUnknown
}

func lookupAnonymity(override map[string]model.Anonymity, raw string) model.Anonymity {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return model.AnonymityNone
	}
	if a, ok := override[key]; ok {
		return a
	}
	if a, ok := defaultAnonymity[key]; ok {
		return a
	}
	return model.AnonymityUnknown
}

func allNumericLabels(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if !isDigits(label) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
