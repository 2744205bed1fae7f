package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ruteri/ssh-key-provisioning-backend/api/adminhandler"
	"github.com/ruteri/ssh-key-provisioning-backend/cryptoutils"
	"github.com/ruteri/ssh-key-provisioning-backend/interfaces"
	"github.com/ruteri/ssh-key-provisioning-backend/kms"
	"github.com/ruteri/ssh-key-provisioning-backend/sshkeys"
	"github.com/urfave/cli/v2"
)

var KmsTypeFlag = &cli.StringFlag{
	Name:  "kms-type",
	Value: "seed",
	Usage: "type of KMS to use: 'seed', 'passphrase' or 'shamir'",
}

var KmsSeedFlag = &cli.StringFlag{
	Name:  "kms-seed",
	Value: "",
	Usage: "hex-encoded 32-byte master seed (required if kms-type is 'seed')",
}

var KmsPassphraseFlag = &cli.StringFlag{
	Name:    "kms-passphrase",
	Value:   "",
	Usage:   "passphrase the master seed is derived from (required if kms-type is 'passphrase')",
	EnvVars: []string{"KEYSERVICE_KMS_PASSPHRASE"},
}
var KmsPassphraseSaltFlag = &cli.StringFlag{
	Name:  "kms-passphrase-salt",
	Value: "",
	Usage: "deployment-specific salt for passphrase seed derivation",
}

var KmsAdminKeysFlag = &cli.StringFlag{
	Name:  "shamir-admin-keys-file",
	Value: "",
	Usage: "JSON file with admin public keys for the Shamir KMS (required if kms-type is 'shamir')",
}
var KmsThresholdFlag = &cli.IntFlag{
	Name:  "shamir-threshold",
	Value: 2,
	Usage: "number of shares required to reconstruct the master seed",
}
var KmsTimeoutFlag = &cli.IntFlag{
	Name:  "shamir-bootstrap-timeout",
	Value: 86400,
	Usage: "timeout in seconds for the admin bootstrap ceremony",
}

var KmsFlags = []cli.Flag{
	KmsTypeFlag,
	KmsSeedFlag,
	KmsPassphraseFlag,
	KmsPassphraseSaltFlag,
	KmsAdminKeysFlag,
	KmsThresholdFlag,
	KmsTimeoutFlag,
}

// bootstrapKMS defers host key operations to the Shamir KMS produced by the
// admin ceremony. Until the ceremony completes every operation fails with
// kms.ErrLocked, which the API layer reports as service unavailable.
type bootstrapKMS struct {
	admin *adminhandler.AdminHandler
}

func (b *bootstrapKMS) kms() (interfaces.KMS, error) {
	if k := b.admin.GetKMS(); k != nil {
		return k, nil
	}
	return nil, kms.ErrLocked
}

func (b *bootstrapKMS) HostPublicKey(host interfaces.HostName, curve sshkeys.Curve) (sshkeys.PublicKey, error) {
	k, err := b.kms()
	if err != nil {
		return nil, err
	}
	return k.HostPublicKey(host, curve)
}

func (b *bootstrapKMS) HostKeyPair(host interfaces.HostName, curve sshkeys.Curve) (sshkeys.PrivateKey, error) {
	k, err := b.kms()
	if err != nil {
		return nil, err
	}
	return k.HostKeyPair(host, curve)
}

func (b *bootstrapKMS) SignHostData(host interfaces.HostName, curve sshkeys.Curve, data []byte) ([]byte, error) {
	k, err := b.kms()
	if err != nil {
		return nil, err
	}
	return k.SignHostData(host, curve, data)
}

// SetupKMS initializes the KMS according to the kms-type flag. For the
// shamir type it returns the admin handler whose routes must be served on
// the admin listener; callers wait on the handler before exposing host keys.
func SetupKMS(cCtx *cli.Context, logger *slog.Logger) (interfaces.KMS, *adminhandler.AdminHandler, error) {
	switch kmsType := cCtx.String(KmsTypeFlag.Name); kmsType {
	case "seed":
		logger.Info("Using seed KMS")

		seedHex := cCtx.String(KmsSeedFlag.Name)
		if seedHex == "" {
			return nil, nil, errors.New("kms-seed is required for seed KMS")
		}

		seed, err := hex.DecodeString(seedHex)
		if err != nil || len(seed) != 32 {
			return nil, nil, fmt.Errorf("invalid kms-seed, must be 64 hex chars: %v", err)
		}

		seedKMS, err := kms.NewSeedKMS(seed)
		if err != nil {
			return nil, nil, fmt.Errorf("could not initialize seed KMS: %w", err)
		}
		return seedKMS, nil, nil

	case "passphrase":
		logger.Info("Using passphrase-derived seed KMS")

		passphrase := cCtx.String(KmsPassphraseFlag.Name)
		if passphrase == "" {
			return nil, nil, errors.New("kms-passphrase is required for passphrase KMS")
		}
		salt := cCtx.String(KmsPassphraseSaltFlag.Name)

		seed := cryptoutils.SeedFromPassphrase([]byte(passphrase), []byte(salt))
		seedKMS, err := kms.NewSeedKMS(seed)
		if err != nil {
			return nil, nil, fmt.Errorf("could not initialize seed KMS: %w", err)
		}
		return seedKMS, nil, nil

	case "shamir":
		logger.Info("Using Shamir KMS with admin bootstrap")

		adminKeysFile := cCtx.String(KmsAdminKeysFlag.Name)
		if adminKeysFile == "" {
			return nil, nil, errors.New("shamir-admin-keys-file is required for shamir KMS")
		}

		adminKeysData, err := os.Open(adminKeysFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open admin keys file: %w", err)
		}
		defer adminKeysData.Close()

		adminKeys, err := adminhandler.LoadAdminKeys(adminKeysData)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load admin keys: %w", err)
		}

		adminHandler, err := adminhandler.NewAdminHandler(logger, cCtx.Int(KmsThresholdFlag.Name), adminKeys)
		if err != nil {
			return nil, nil, fmt.Errorf("could not initialize admin handler: %w", err)
		}

		return &bootstrapKMS{admin: adminHandler}, adminHandler, nil

	default:
		return nil, nil, fmt.Errorf("invalid kms-type: %s", kmsType)
	}
}
