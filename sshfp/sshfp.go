package sshfp

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
)

// SSHFP constants from RFC 4255 and RFC 6594.
const (
	// AlgorithmECDSA is the SSHFP algorithm number for ECDSA keys.
	AlgorithmECDSA = 3

	// FingerprintSHA1 is the SHA-1 fingerprint type.
	FingerprintSHA1 = 1

	// FingerprintSHA256 is the SHA-256 fingerprint type.
	FingerprintSHA256 = 2

	// RecordTTL is the TTL applied to generated records.
	RecordTTL = 3600
)

// Records builds the SSHFP resource records for a host's public key.
// One record is produced per fingerprint type, with the fingerprint
// computed over the SSH wire blob of the key.
func Records(host interfaces.HostName, pub sshkeys.PublicKey) ([]dns.RR, error) {
	if err := host.Validate(); err != nil {
		return nil, fmt.Errorf("invalid host name: %w", err)
	}

	blob := pub.Blob()
	sha1Digest := sha1.Sum(blob)
	sha256Digest := sha256.Sum256(blob)

	hdr := dns.RR_Header{
		Name:   dns.Fqdn(host.String()),
		Rrtype: dns.TypeSSHFP,
		Class:  dns.ClassINET,
		Ttl:    RecordTTL,
	}

	return []dns.RR{
		&dns.SSHFP{
			Hdr:         hdr,
			Algorithm:   AlgorithmECDSA,
			Type:        FingerprintSHA1,
			FingerPrint: hex.EncodeToString(sha1Digest[:]),
		},
		&dns.SSHFP{
			Hdr:         hdr,
			Algorithm:   AlgorithmECDSA,
			Type:        FingerprintSHA256,
			FingerPrint: hex.EncodeToString(sha256Digest[:]),
		},
	}, nil
}

// Zone renders the SSHFP records for a host as a zone-file fragment,
// one record per line, ready to paste into the host's DNS zone.
func Zone(host interfaces.HostName, pub sshkeys.PublicKey) (string, error) {
	records, err := Records(host, pub)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, rr := range records {
		sb.WriteString(rr.String())
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// Lookup queries a resolver for the SSHFP records of a host.
// The resolver address may omit the port, in which case 53 is used.
func Lookup(host interfaces.HostName, resolver string) ([]*dns.SSHFP, error) {
	if err := host.Validate(); err != nil {
		return nil, fmt.Errorf("invalid host name: %w", err)
	}

	if _, _, err := net.SplitHostPort(resolver); err != nil {
		resolver = net.JoinHostPort(resolver, "53")
	}

	m := new(dns.Msg)
	m.Id = dns.Id()
	m.RecursionDesired = true
	m.Question = make([]dns.Question, 1)
	m.Question[0] = dns.Question{Name: dns.Fqdn(host.String()), Qtype: dns.TypeSSHFP, Qclass: dns.ClassINET}

	c := new(dns.Client)
	in, _, err := c.Exchange(m, resolver)
	if err != nil {
		return nil, fmt.Errorf("SSHFP query for %s failed: %w", host, err)
	}

	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("SSHFP query for %s failed with rcode %s", host, dns.RcodeToString[in.Rcode])
	}

	records := make([]*dns.SSHFP, 0, len(in.Answer))
	for _, answer := range in.Answer {
		if sshfp, ok := answer.(*dns.SSHFP); ok {
			records = append(records, sshfp)
		}
	}

	return records, nil
}

// VerifyPublished reports whether the resolver serves an SSHFP record
// matching the key's SHA-256 fingerprint.
func VerifyPublished(host interfaces.HostName, pub sshkeys.PublicKey, resolver string) (bool, error) {
	records, err := Lookup(host, resolver)
	if err != nil {
		return false, err
	}

	return matchesKey(records, pub), nil
}

// matchesKey reports whether any record carries the SHA-256 fingerprint of the key.
func matchesKey(records []*dns.SSHFP, pub sshkeys.PublicKey) bool {
	digest := sha256.Sum256(pub.Blob())
	want := hex.EncodeToString(digest[:])

	for _, record := range records {
		if record.Algorithm != AlgorithmECDSA || record.Type != FingerprintSHA256 {
			continue
		}
		if strings.EqualFold(record.FingerPrint, want) {
			return true
		}
	}

	return false
}
