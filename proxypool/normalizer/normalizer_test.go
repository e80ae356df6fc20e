package normalizer

import (
	"errors"
	"testing"

	"proxylist_generator/proxypool/model"
)

func TestNormalizeHost_Valid(t *testing.T) {
	cases := map[string]string{
		"10.0.0.1":             "10.0.0.1",
		" 192.168.1.1 ":        "192.168.1.1",
		"2001:DB8::1":          "2001:db8::1",
		"[2001:db8::2]":        "2001:db8::2",
		"::ffff:10.0.0.9":      "10.0.0.9",
		"Proxy.Example.COM":    "proxy.example.com",
		"proxy-1.example.org.": "proxy-1.example.org",
		"localhost":            "localhost",
	}
	for in, want := range cases {
		got, err := NormalizeHost(in)
		if err != nil {
			t.Errorf("NormalizeHost(%q) returned an error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeHost(%q): expected %q, but got %q", in, want, got)
		}
	}
}

func TestNormalizeHost_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"999.999.999.999",
		"10.0.0",
		"10.0.0.1.5",
		"01.02.03.04",
		"fe80::1%eth0",
		"2001:db8:::1",
		"bad_host.example.com",
		"-leading.example.com",
		"example..com",
		"host.123",
		"<td>10.0.0.1</td>",
	} {
		_, err := NormalizeHost(in)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("NormalizeHost(%q): expected a *ValidationError, but got %v", in, err)
			continue
		}
		if ve.Field != "host" {
			t.Errorf("NormalizeHost(%q): expected field 'host', but got %q", in, ve.Field)
		}
	}
}

func TestNormalizePort(t *testing.T) {
	valid := map[string]int{"1": 1, "8080": 8080, " 3128 ": 3128, "65535": 65535}
	for in, want := range valid {
		got, err := NormalizePort(in)
		if err != nil || got != want {
			t.Errorf("NormalizePort(%q): expected %d, but got %d (err=%v)", in, want, got, err)
		}
	}
	for _, in := range []string{"", "0", "65536", "70000", "-1", "+80", "80a", "8 0", "99999999999999999999"} {
		if _, err := NormalizePort(in); err == nil {
			t.Errorf("NormalizePort(%q): expected an error, but got nil", in)
		}
	}
}

func TestNormalize_MapsMetadata(t *testing.T) {
	n := New()
	rec, err := n.Normalize(model.Candidate{Host: "10.0.0.1", Port: "8080", Protocol: "HTTPS", Country: " US ", Anonymity: "Elite Proxy"}, "free_proxy_list")
	if err != nil {
		t.Fatalf("Normalize() returned an error: %v", err)
	}
	if rec.Protocol != model.ProtocolHTTPS {
		t.Errorf("Expected protocol https, but got %s", rec.Protocol)
	}
	if rec.Anonymity != model.AnonymityElite {
		t.Errorf("Expected anonymity elite, but got %s", rec.Anonymity)
	}
	if rec.Country != "US" {
		t.Errorf("Expected trimmed country 'US', but got %q", rec.Country)
	}
	if len(rec.Sources) != 1 || rec.Sources[0] != "free_proxy_list" {
		t.Errorf("Expected provenance [free_proxy_list], but got %v", rec.Sources)
	}
}

func TestNormalize_UnknownMetadataIsNotRejected(t *testing.T) {
	rec, err := New().Normalize(model.Candidate{Host: "10.0.0.1", Port: "80", Protocol: "carrier-pigeon", Anonymity: "sort of"}, "x")
	if err != nil {
		t.Fatalf("Normalize() returned an error: %v", err)
	}
	if rec.Protocol != model.ProtocolUnknown || rec.Anonymity != model.AnonymityUnknown {
		t.Errorf("Expected unknown protocol and anonymity, but got %s / %s", rec.Protocol, rec.Anonymity)
	}

	rec, _ = New().Normalize(model.Candidate{Host: "10.0.0.1", Port: "80"}, "x")
	if rec.Protocol != model.ProtocolUnknown {
		t.Errorf("Expected missing protocol to default to unknown, but got %s", rec.Protocol)
	}
	if rec.Anonymity != model.AnonymityNone || rec.Country != "" {
		t.Errorf("Expected absent anonymity and country, but got %q / %q", rec.Anonymity, rec.Country)
	}
}

func TestNormalize_PerSourceTables(t *testing.T) {
	n := New()
	rec, _ := n.Normalize(model.Candidate{Host: "10.0.0.1", Port: "80", Anonymity: "H"}, "spys_me")
	if rec.Anonymity != model.AnonymityElite {
		t.Errorf("Expected spys.me 'H' to map to elite, but got %s", rec.Anonymity)
	}
	// 其他代理源不使用 spys.me 的缩写表
	rec, _ = n.Normalize(model.Candidate{Host: "10.0.0.1", Port: "80", Anonymity: "H"}, "geonode")
	if rec.Anonymity != model.AnonymityUnknown {
		t.Errorf("Expected 'H' outside spys.me to be unknown, but got %s", rec.Anonymity)
	}

	n.WithTables("custom", Tables{Protocols: map[string]model.Protocol{"s5": model.ProtocolSOCKS5}})
	rec, _ = n.Normalize(model.Candidate{Host: "10.0.0.1", Port: "80", Protocol: "S5"}, "custom")
	if rec.Protocol != model.ProtocolSOCKS5 {
		t.Errorf("Expected custom table to map S5 to socks5, but got %s", rec.Protocol)
	}
}

func TestNormalizeAll_CountsRejected(t *testing.T) {
	candidates := []model.Candidate{
		{Host: "10.0.0.1", Port: "8080"},
		{Host: "999.999.999.999", Port: "8080"},
		{Host: "10.0.0.2", Port: "70000"},
		{Host: "10.0.0.3", Port: "3128"},
	}
	records, rejected := New().NormalizeAll(candidates, "a")
	if rejected != 2 {
		t.Errorf("Expected 2 rejected candidates, but got %d", rejected)
	}
	if len(records) != 2 || records[0].Host != "10.0.0.1" || records[1].Host != "10.0.0.3" {
		t.Errorf("Expected the two valid records in order, but got %+v", records)
	}
}
