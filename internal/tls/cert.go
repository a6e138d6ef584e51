// SPDX-License-Identifier: MIT

// Package tls mints self-signed server certificates for the daemon's HTTPS
// listener. Production deployments bring their own certificates; this exists
// so TLS can be turned on without a CA in the loop.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// DefaultValidity is how long a generated certificate stays valid.
const DefaultValidity = 365 * 24 * time.Hour

// GenerateSelfSigned creates an ECDSA P-256 key pair and a self-signed
// server certificate, PEM-encoded at certPath and keyPath. Existing files
// are overwritten. The certificate always covers localhost and the loopback
// addresses; hosts adds further DNS names or IP literals.
func GenerateSelfSigned(certPath, keyPath string, validFor time.Duration, hosts ...string) error {
	if validFor <= 0 {
		validFor = DefaultValidity
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	serialLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return fmt.Errorf("generate serial: %w", err)
	}

	dnsNames, ipAddrs := splitHosts(hosts)

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"airrspec self-signed"},
			CommonName:   "airrspec",
		},
		NotBefore:             now,
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              dnsNames,
		IPAddresses:           ipAddrs,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}

	if err := writePEM(certPath, "CERTIFICATE", der, 0o644); err != nil {
		return err
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	// The key must never be group or world readable.
	return writePEM(keyPath, "EC PRIVATE KEY", keyDER, 0o600)
}

// splitHosts partitions SAN entries into DNS names and IPs, prepends the
// loopback defaults and drops duplicates.
func splitHosts(hosts []string) (dnsNames []string, ipAddrs []net.IP) {
	dnsNames = []string{"localhost"}
	ipAddrs = []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")}

	seenDNS := map[string]bool{"localhost": true}
	seenIP := map[string]bool{"127.0.0.1": true, "::1": true}

	for _, h := range hosts {
		if h == "" {
			continue
		}
		if ip := net.ParseIP(h); ip != nil {
			if !seenIP[ip.String()] {
				seenIP[ip.String()] = true
				ipAddrs = append(ipAddrs, ip)
			}
			continue
		}
		if !seenDNS[h] {
			seenDNS[h] = true
			dnsNames = append(dnsNames, h)
		}
	}
	return dnsNames, ipAddrs
}

func writePEM(path, blockType string, der []byte, mode os.FileMode) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode) // #nosec G304 -- operator-chosen output path
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// LocalHosts returns the non-loopback addresses of up interfaces, for
// including a machine's LAN addresses in a generated certificate. Detection
// failures return an empty list; the loopback defaults always apply.
func LocalHosts() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var hosts []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
				continue
			}
			hosts = append(hosts, ip.String())
		}
	}
	return hosts
}
