package main

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ruteri/ssh-key-provisioning-backend/cryptoutils"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/kms"
	"github.com/ruteri/ssh-key-provisioning-backend/sshfp"
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
	"github.com/urfave/cli/v2"
)

var flagCurve *cli.StringFlag = &cli.StringFlag{
	Name:  "curve",
	Value: "nistp256",
	Usage: "Curve ident: nistp256, nistp384 or nistp521",
}
var flagPrivkeyFile *cli.StringFlag = &cli.StringFlag{
	Name:  "privkey-file",
	Value: "key-private.pem",
	Usage: "Path to the EC private key PEM file",
}
var flagPubkeyFile *cli.StringFlag = &cli.StringFlag{
	Name:  "pubkey-file",
	Value: "key-public.pem",
	Usage: "Path to the EC public key PEM file",
}
var flagKeyFile *cli.StringFlag = &cli.StringFlag{
	Name:  "key-file",
	Usage: "Path to a public key, either a public-key line or a PEM file",
}
var flagHost *cli.StringFlag = &cli.StringFlag{
	Name:     "host",
	Required: true,
	Usage:    "Hostname the key belongs to",
}
var flagSeed *cli.StringFlag = &cli.StringFlag{
	Name:  "kms-seed",
	Usage: "hex-encoded 32-byte master seed to derive host keys from",
}
var flagPassphrase *cli.StringFlag = &cli.StringFlag{
	Name:    "kms-passphrase",
	Usage:   "passphrase to derive the master seed from",
	EnvVars: []string{"KEYSERVICE_KMS_PASSPHRASE"},
}
var flagPassphraseSalt *cli.StringFlag = &cli.StringFlag{
	Name:  "kms-passphrase-salt",
	Usage: "deployment-specific salt for passphrase seed derivation",
}

// readInput returns the contents of the first positional argument, or
// stdin when no argument (or "-") is given.
func readInput(cCtx *cli.Context) ([]byte, error) {
	name := cCtx.Args().First()
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// loadPublicKey reads a public key from the key-file flag. Both the
// "ecdsa-sha2-* <base64> [comment]" line format and PEM are accepted.
func loadPublicKey(cCtx *cli.Context) (*sshkeys.ECDSAPublicKey, error) {
	path := cCtx.String(flagKeyFile.Name)
	if path == "" {
		return nil, fmt.Errorf("key-file is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if key, _, err := sshkeys.ParseAuthorizedKey(strings.TrimSpace(string(data))); err == nil {
		return key, nil
	}

	publicKeyPEM, err := cryptoutils.NewPublicKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("key is neither a public-key line nor PEM: %w", err)
	}
	ecdsaPub, err := publicKeyPEM.ECDSAKey()
	if err != nil {
		return nil, err
	}
	return sshkeys.NewECDSAPublicKey(ecdsaPub)
}

// loadKeyPair reads an EC private key PEM from the privkey-file flag.
func loadKeyPair(cCtx *cli.Context) (*sshkeys.ECDSAKeyPair, error) {
	data, err := os.ReadFile(cCtx.String(flagPrivkeyFile.Name))
	if err != nil {
		return nil, err
	}

	privateKeyPEM, err := cryptoutils.NewPrivateKeyPEM(data)
	if err != nil {
		return nil, err
	}
	privateKey, err := privateKeyPEM.ECDSAKey()
	if err != nil {
		return nil, err
	}
	return sshkeys.NewECDSAKeyPair(privateKey)
}

// seedKMSFromFlags builds an offline KMS from the kms-seed or
// kms-passphrase flags.
func seedKMSFromFlags(cCtx *cli.Context) (*kms.SeedKMS, error) {
	if seedHex := cCtx.String(flagSeed.Name); seedHex != "" {
		seed, err := hex.DecodeString(seedHex)
		if err != nil || len(seed) != 32 {
			return nil, fmt.Errorf("invalid kms-seed, must be 64 hex chars: %v", err)
		}
		return kms.NewSeedKMS(seed)
	}

	if passphrase := cCtx.String(flagPassphrase.Name); passphrase != "" {
		salt := cCtx.String(flagPassphraseSalt.Name)
		return kms.NewSeedKMS(cryptoutils.SeedFromPassphrase([]byte(passphrase), []byte(salt)))
	}

	return nil, fmt.Errorf("one of kms-seed and kms-passphrase is required")
}

func keyFingerprint(key sshkeys.PublicKey) (interfaces.Fingerprint, error) {
	blob, err := key.Blob()
	if err != nil {
		return interfaces.Fingerprint{}, err
	}
	return interfaces.ComputeFingerprint(blob), nil
}

func main() {
	app := &cli.App{
		Name:  "keytool",
		Usage: "Offline SSH key operations",
		Commands: []*cli.Command{
			{
				Name:        "generate",
				Usage:       "Generate an ECDSA key pair",
				Description: "Generates an ECDSA key pair on the chosen curve, writes both halves as PEM files and prints the public-key line.",
				Flags: []cli.Flag{
					flagCurve,
					flagPrivkeyFile,
					flagPubkeyFile,
				},
				Action: func(cCtx *cli.Context) error {
					curve, err := sshkeys.ParseCurve(cCtx.String(flagCurve.Name))
					if err != nil {
						return err
					}

					privateKey, err := ecdsa.GenerateKey(curve.Params(), rand.Reader)
					if err != nil {
						return fmt.Errorf("failed to generate key: %w", err)
					}

					privateKeyPEM, err := cryptoutils.MarshalPrivateKey(privateKey)
					if err != nil {
						return err
					}
					publicKeyPEM, err := cryptoutils.MarshalPublicKey(&privateKey.PublicKey)
					if err != nil {
						return err
					}

					if err := os.WriteFile(cCtx.String(flagPrivkeyFile.Name), privateKeyPEM, 0600); err != nil {
						return err
					}
					if err := os.WriteFile(cCtx.String(flagPubkeyFile.Name), publicKeyPEM, 0644); err != nil {
						return err
					}

					keyPair, err := sshkeys.NewECDSAKeyPair(privateKey)
					if err != nil {
						return err
					}

					fmt.Println(keyPair.String())
					return nil
				},
			},
			{
				Name:        "inspect",
				Usage:       "Describe a public key",
				Description: "Prints the algorithm, curve, size, fingerprint and public-key line of the given key.",
				Flags: []cli.Flag{
					flagKeyFile,
				},
				Action: func(cCtx *cli.Context) error {
					key, err := loadPublicKey(cCtx)
					if err != nil {
						return err
					}

					fp, err := keyFingerprint(key)
					if err != nil {
						return err
					}

					fmt.Printf("keytype:     %s\n", key.Keytype())
					fmt.Printf("curve:       %s\n", key.Curve())
					fmt.Printf("size:        %d\n", key.Size())
					fmt.Printf("fingerprint: %s\n", fp)
					fmt.Printf("key:         %s\n", key)
					return nil
				},
			},
			{
				Name:        "fingerprint",
				Usage:       "Print a key's fingerprint",
				Description: "Prints the SHA-256 fingerprint of the given public key.",
				Flags: []cli.Flag{
					flagKeyFile,
				},
				Action: func(cCtx *cli.Context) error {
					key, err := loadPublicKey(cCtx)
					if err != nil {
						return err
					}

					fp, err := keyFingerprint(key)
					if err != nil {
						return err
					}

					fmt.Println(fp.String())
					return nil
				},
			},
			{
				Name:        "hostkey",
				Usage:       "Derive a host public key from a seed",
				Description: "Derives the host's public key offline, the same way the key service does, and prints it as a public-key or known_hosts line.",
				Flags: []cli.Flag{
					flagHost,
					flagCurve,
					flagSeed,
					flagPassphrase,
					flagPassphraseSalt,
					&cli.BoolFlag{
						Name:  "known-hosts",
						Usage: "print a known_hosts line instead of a public-key line",
					},
				},
				Action: func(cCtx *cli.Context) error {
					host, err := interfaces.NewHostName(cCtx.String(flagHost.Name))
					if err != nil {
						return err
					}
					curve, err := sshkeys.ParseCurve(cCtx.String(flagCurve.Name))
					if err != nil {
						return err
					}

					seedKMS, err := seedKMSFromFlags(cCtx)
					if err != nil {
						return err
					}

					pub, err := seedKMS.HostPublicKey(host, curve)
					if err != nil {
						return err
					}

					if cCtx.Bool("known-hosts") {
						fmt.Printf("%s %s\n", host, pub)
					} else {
						fmt.Println(pub)
					}
					return nil
				},
			},
			{
				Name:        "sshfp",
				Usage:       "Publish or verify SSHFP records",
				Description: "Prints the SSHFP zone fragment for the given key, or, with a resolver, checks that DNS already serves a matching record.",
				Flags: []cli.Flag{
					flagHost,
					flagKeyFile,
					&cli.StringFlag{
						Name:  "resolver",
						Usage: "DNS resolver address (host:port); when set, verify instead of print",
					},
				},
				Action: func(cCtx *cli.Context) error {
					host, err := interfaces.NewHostName(cCtx.String(flagHost.Name))
					if err != nil {
						return err
					}
					key, err := loadPublicKey(cCtx)
					if err != nil {
						return err
					}

					if resolver := cCtx.String("resolver"); resolver != "" {
						published, err := sshfp.VerifyPublished(host, key, resolver)
						if err != nil {
							return err
						}
						if !published {
							return fmt.Errorf("no matching SSHFP record for %s", host)
						}
						fmt.Printf("SSHFP record for %s matches the key\n", host)
						return nil
					}

					zone, err := sshfp.Zone(host, key)
					if err != nil {
						return err
					}
					fmt.Print(zone)
					return nil
				},
			},
			{
				Name:        "sign",
				Usage:       "Sign data with a private key",
				Description: "Signs the data from the given file (or stdin) and prints the DER signature base64-encoded.",
				Flags: []cli.Flag{
					flagPrivkeyFile,
				},
				Action: func(cCtx *cli.Context) error {
					keyPair, err := loadKeyPair(cCtx)
					if err != nil {
						return err
					}

					data, err := readInput(cCtx)
					if err != nil {
						return err
					}

					sig, err := keyPair.Sign(data)
					if err != nil {
						return err
					}

					fmt.Println(base64.StdEncoding.EncodeToString(sig))
					return nil
				},
			},
			{
				Name:        "verify",
				Usage:       "Verify a detached signature",
				Description: "Checks the base64 DER signature against the data from the given file (or stdin) using the public key.",
				Flags: []cli.Flag{
					flagKeyFile,
					&cli.StringFlag{
						Name:     "signature",
						Required: true,
						Usage:    "base64-encoded DER signature",
					},
				},
				Action: func(cCtx *cli.Context) error {
					key, err := loadPublicKey(cCtx)
					if err != nil {
						return err
					}

					sig, err := base64.StdEncoding.DecodeString(cCtx.String("signature"))
					if err != nil {
						return fmt.Errorf("invalid signature encoding: %w", err)
					}

					data, err := readInput(cCtx)
					if err != nil {
						return err
					}

					valid, err := key.Verify(data, sig)
					if err != nil {
						return err
					}
					if !valid {
						return fmt.Errorf("signature does not match")
					}

					fmt.Println("signature valid")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
