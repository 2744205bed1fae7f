package main

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ruteri/ssh-key-provisioning-backend/api/adminhandler"
	"github.com/ruteri/ssh-key-provisioning-backend/api/clients"
	"github.com/ruteri/ssh-key-provisioning-backend/cryptoutils"
	"github.com/urfave/cli/v2"
)

var flagServerAddr *cli.StringFlag = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8081",
	Usage: "Key service admin listener address",
}
var flagAdminPrivkey *cli.StringFlag = &cli.StringFlag{
	Name:  "admin-privkey-file",
	Value: "admin-private.pem",
	Usage: "Path to admin private key",
}
var flagAdminPubkey *cli.StringFlag = &cli.StringFlag{
	Name:  "admin-pubkey-file",
	Value: "admin-public.pem",
	Usage: "Path to admin public key",
}
var flagAdminsConfig *cli.StringFlag = &cli.StringFlag{
	Name:  "admins-config-file",
	Value: "admins.json",
	Usage: "Path to the admin whitelist consumed by the key service",
}
var flagShareFile *cli.StringFlag = &cli.StringFlag{
	Name:  "share-file",
	Value: "admin-share.json",
	Usage: "Path to the file holding this admin's decrypted share",
}

// shareFile is the on-disk format produced by get-share and consumed by
// submit-share. The share inside is decrypted and must be kept private.
type shareFile struct {
	ShareIndex int    `json:"share_index"`
	Share      string `json:"share"`
}

// adminIDFor derives the admin identifier as the hex SHA-256 of the public
// key PEM. The same derivation is used when assembling the admins config,
// so the service and the client agree on IDs without extra coordination.
func adminIDFor(publicKeyPEM []byte) string {
	pubkeyHash := sha256.Sum256(publicKeyPEM)
	return hex.EncodeToString(pubkeyHash[:])
}

// loadAdminCredentials reads the admin key files named by the flags and
// returns the derived admin ID together with the parsed private key.
func loadAdminCredentials(cCtx *cli.Context) (string, *ecdsa.PrivateKey, error) {
	publicKeyPEM, err := os.ReadFile(cCtx.String(flagAdminPubkey.Name))
	if err != nil {
		return "", nil, fmt.Errorf("could not read admin public key: %w", err)
	}

	privateKeyData, err := os.ReadFile(cCtx.String(flagAdminPrivkey.Name))
	if err != nil {
		return "", nil, fmt.Errorf("could not read admin private key: %w", err)
	}

	privateKeyPEM, err := cryptoutils.NewPrivateKeyPEM(privateKeyData)
	if err != nil {
		return "", nil, fmt.Errorf("invalid admin private key: %w", err)
	}

	privateKey, err := privateKeyPEM.ECDSAKey()
	if err != nil {
		return "", nil, err
	}

	return adminIDFor(publicKeyPEM), privateKey, nil
}

func newAdminClient(cCtx *cli.Context) (*clients.AdminClient, error) {
	adminID, privateKey, err := loadAdminCredentials(cCtx)
	if err != nil {
		return nil, err
	}
	return clients.NewAdminClient(cCtx.String(flagServerAddr.Name), adminID, privateKey), nil
}

func main() {
	app := &cli.App{
		Name:           "admin",
		Usage:          "Shamir bootstrap client for the key service",
		DefaultCommand: "status",
		Commands: []*cli.Command{
			{
				Name:        "status",
				Usage:       "Query the bootstrap state",
				Description: "Prints the current bootstrap state of the key service (initial, generating_shares, recovering or complete).",
				Flags: []cli.Flag{
					flagServerAddr,
				},
				Action: func(cCtx *cli.Context) error {
					adminClient := clients.NewAdminClient(cCtx.String(flagServerAddr.Name), "", nil)
					status, err := adminClient.GetStatus()
					if err != nil {
						return err
					}

					fmt.Println(status)
					return nil
				},
			},
			{
				Name:        "keygen",
				Usage:       "Generate admin credentials",
				Description: "Generates a P-256 key pair for admin authentication and share encryption, writes both PEM files and prints the derived admin ID.",
				Flags: []cli.Flag{
					flagAdminPrivkey,
					flagAdminPubkey,
				},
				Action: func(cCtx *cli.Context) error {
					publicKeyPEM, privateKeyPEM, err := cryptoutils.RandomP256Keypair()
					if err != nil {
						return fmt.Errorf("failed to generate admin key pair: %w", err)
					}

					if err := os.WriteFile(cCtx.String(flagAdminPrivkey.Name), privateKeyPEM, 0600); err != nil {
						return err
					}

					if err := os.WriteFile(cCtx.String(flagAdminPubkey.Name), publicKeyPEM, 0600); err != nil {
						return err
					}

					fmt.Println(adminIDFor(publicKeyPEM))
					return nil
				},
			},
			{
				Name:        "generate-config",
				Usage:       "Assemble the admin whitelist",
				Description: "Builds the admins JSON file the key service loads at startup from the given admin public key files.",
				Flags: []cli.Flag{
					flagAdminsConfig,
					&cli.StringSliceFlag{
						Name:  "admin-pubkey-files",
						Usage: "Admin public key PEM files to include",
					},
				},
				Action: func(cCtx *cli.Context) error {
					config := adminhandler.AdminsConfig{}

					for _, pubkey := range cCtx.StringSlice("admin-pubkey-files") {
						publicKeyPEM, err := os.ReadFile(pubkey)
						if err != nil {
							return err
						}

						if _, err := cryptoutils.NewPublicKeyPEM(publicKeyPEM); err != nil {
							return fmt.Errorf("invalid public key in %s: %w", pubkey, err)
						}

						config.Admins = append(config.Admins, adminhandler.AdminMetadata{
							ID:     adminIDFor(publicKeyPEM),
							PubKey: string(publicKeyPEM),
						})
					}

					configBytes, err := json.Marshal(config)
					if err != nil {
						return err
					}

					return os.WriteFile(cCtx.String(flagAdminsConfig.Name), configBytes, 0600)
				},
			},
			{
				Name:        "init-generate",
				Usage:       "Start share generation",
				Description: "Asks the key service to generate a fresh master seed and split it into encrypted shares, one per configured admin.",
				Flags: []cli.Flag{
					flagServerAddr,
					flagAdminPrivkey,
					flagAdminPubkey,
				},
				Action: func(cCtx *cli.Context) error {
					adminClient, err := newAdminClient(cCtx)
					if err != nil {
						return err
					}

					result, err := adminClient.InitGenerate()
					if err != nil {
						return err
					}

					resultJSON, err := json.MarshalIndent(result, "", "  ")
					if err != nil {
						return err
					}

					fmt.Println(string(resultJSON))
					return nil
				},
			},
			{
				Name:        "init-recover",
				Usage:       "Start share recovery",
				Description: "Puts the key service into recovery mode so admins can resubmit their shares and reconstruct the master seed.",
				Flags: []cli.Flag{
					flagServerAddr,
					flagAdminPrivkey,
					flagAdminPubkey,
				},
				Action: func(cCtx *cli.Context) error {
					adminClient, err := newAdminClient(cCtx)
					if err != nil {
						return err
					}
					return adminClient.InitRecover()
				},
			},
			{
				Name:        "get-share",
				Usage:       "Retrieve this admin's share",
				Description: "Fetches the encrypted share assigned to this admin, decrypts it with the admin private key and stores it in the share file.",
				Flags: []cli.Flag{
					flagServerAddr,
					flagAdminPrivkey,
					flagAdminPubkey,
					flagShareFile,
				},
				Action: func(cCtx *cli.Context) error {
					adminClient, err := newAdminClient(cCtx)
					if err != nil {
						return err
					}

					shareIndex, share, err := adminClient.GetShare()
					if err != nil {
						return err
					}

					shareJSON, err := json.Marshal(shareFile{
						ShareIndex: shareIndex,
						Share:      base64.StdEncoding.EncodeToString(share),
					})
					if err != nil {
						return err
					}

					return os.WriteFile(cCtx.String(flagShareFile.Name), shareJSON, 0600)
				},
			},
			{
				Name:        "submit-share",
				Usage:       "Submit this admin's share",
				Description: "Reads the share file, signs the share and submits it to a recovering key service.",
				Flags: []cli.Flag{
					flagServerAddr,
					flagAdminPrivkey,
					flagAdminPubkey,
					flagShareFile,
				},
				Action: func(cCtx *cli.Context) error {
					adminClient, err := newAdminClient(cCtx)
					if err != nil {
						return err
					}

					shareJSON, err := os.ReadFile(cCtx.String(flagShareFile.Name))
					if err != nil {
						return err
					}

					var stored shareFile
					if err := json.Unmarshal(shareJSON, &stored); err != nil {
						return err
					}

					share, err := base64.StdEncoding.DecodeString(stored.Share)
					if err != nil {
						return err
					}

					message, err := adminClient.SubmitShare(stored.ShareIndex, share)
					if err != nil {
						return err
					}

					fmt.Println(message)
					return nil
				},
			},
			{
				Name:        "wait",
				Usage:       "Wait for the bootstrap to complete",
				Description: "Polls the bootstrap state until it reports complete or the timeout expires.",
				Flags: []cli.Flag{
					flagServerAddr,
					&cli.IntFlag{
						Name:  "timeout-seconds",
						Value: 600,
						Usage: "how long to wait before giving up",
					},
				},
				Action: func(cCtx *cli.Context) error {
					adminClient := clients.NewAdminClient(cCtx.String(flagServerAddr.Name), "", nil)
					timeout := time.Duration(cCtx.Int("timeout-seconds")) * time.Second
					return adminClient.WaitForCompletion(timeout, 2*time.Second)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
