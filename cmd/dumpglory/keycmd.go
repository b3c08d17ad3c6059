package main

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/tos-network/dumpglory/cmd/utils"
	"github.com/urfave/cli/v2"
)

const defaultKeyfileName = "keyfile.json"

type outputGenerate struct {
	Address        string `json:"address"`
	DerivationPath string `json:"derivationPath,omitempty"`
	Mnemonic       string `json:"mnemonic,omitempty"`
}

type outputInspect struct {
	Address    string
	PublicKey  string
	PrivateKey string
}

var (
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "output JSON instead of human-readable format",
	}
	privateKeyFlag = &cli.StringFlag{
		Name:  "privatekey",
		Usage: "file containing a raw private key to encrypt",
	}
	lightKDFFlag = &cli.BoolFlag{
		Name:  "lightkdf",
		Usage: "use less secure scrypt parameters",
	}
	mnemonicGenerateFlag = &cli.BoolFlag{
		Name:  "mnemonic-generate",
		Usage: "Generate a BIP39 mnemonic and derive key using --hd-path",
	}
	mnemonicFlag = &cli.StringFlag{
		Name:  "mnemonic",
		Usage: "Use existing BIP39 mnemonic to derive the key",
	}
	mnemonicPassphraseFlag = &cli.StringFlag{
		Name:  "mnemonic-passphrase",
		Usage: "Optional BIP39 passphrase for mnemonic-to-seed",
	}
	mnemonicBitsFlag = &cli.IntFlag{
		Name:  "mnemonic-bits",
		Usage: "Entropy bits for generated mnemonic (128,160,192,224,256)",
		Value: defaultMnemonicBits,
	}
	hdPathFlag = &cli.StringFlag{
		Name:  "hd-path",
		Usage: "Derivation path used with mnemonic flow",
		Value: defaultHDPath,
	}
	privateFlag = &cli.BoolFlag{
		Name:  "private",
		Usage: "include the private key in the output",
	}
)

var keyCommand = &cli.Command{
	Name:     "key",
	Usage:    "Manage the encrypted key files that sign actions",
	Category: "ACCOUNT COMMANDS",
	Subcommands: []*cli.Command{
		{
			Name:      "generate",
			Usage:     "generate new keyfile",
			ArgsUsage: "[ <keyfile> ]",
			Action:    generateKey,
			Flags: []cli.Flag{
				utils.PasswordFileFlag,
				jsonFlag,
				privateKeyFlag,
				lightKDFFlag,
				mnemonicGenerateFlag,
				mnemonicFlag,
				mnemonicPassphraseFlag,
				mnemonicBitsFlag,
				hdPathFlag,
			},
			Description: `
Generate a new keyfile.

If you want to encrypt an existing private key, it can be specified by setting
--privatekey with the location of the file containing the private key.
`,
		},
		{
			Name:      "inspect",
			Usage:     "inspect a keyfile",
			ArgsUsage: "<keyfile>",
			Action:    inspectKey,
			Flags: []cli.Flag{
				utils.PasswordFileFlag,
				jsonFlag,
				privateFlag,
			},
			Description: `
Print various information about the keyfile.

Private key information can be printed by using the --private flag;
make sure to use this feature with great caution!`,
		},
	},
}

func generateKey(ctx *cli.Context) error {
	// Check if keyfile path given and make sure it doesn't already exist.
	keyfilepath := ctx.Args().First()
	if keyfilepath == "" {
		keyfilepath = defaultKeyfileName
	}
	if _, err := os.Stat(keyfilepath); err == nil {
		utils.Fatalf("Keyfile already exists at %s.", keyfilepath)
	} else if !os.IsNotExist(err) {
		utils.Fatalf("Error checking if keyfile exists: %v", err)
	}

	var (
		privateKey     *ecdsa.PrivateKey
		derivationPath string
		mnemonicOutput string
		mnemonicInput  = strings.TrimSpace(ctx.String(mnemonicFlag.Name))
		mnemonicMode   = mnemonicInput != "" || ctx.Bool(mnemonicGenerateFlag.Name)
		err            error
	)
	switch {
	case ctx.String(privateKeyFlag.Name) != "":
		if mnemonicMode {
			utils.Fatalf("Can't use --privatekey with mnemonic flags")
		}
		privateKey, err = crypto.LoadECDSA(ctx.String(privateKeyFlag.Name))
		if err != nil {
			utils.Fatalf("Can't load private key: %v", err)
		}
	case mnemonicMode:
		if mnemonicInput == "" {
			mnemonicInput, err = generateMnemonic(ctx.Int(mnemonicBitsFlag.Name))
			if err != nil {
				utils.Fatalf("Failed to generate mnemonic: %v", err)
			}
			mnemonicOutput = mnemonicInput
		}
		derivationPath = ctx.String(hdPathFlag.Name)
		privateKey, err = deriveECDSAFromMnemonic(mnemonicInput, ctx.String(mnemonicPassphraseFlag.Name), derivationPath)
		if err != nil {
			utils.Fatalf("Failed to derive private key from mnemonic: %v", err)
		}
	default:
		privateKey, err = crypto.GenerateKey()
		if err != nil {
			utils.Fatalf("Failed to generate random private key: %v", err)
		}
	}

	// Create the keyfile object with a random UUID.
	UUID, err := uuid.NewRandom()
	if err != nil {
		utils.Fatalf("Failed to generate random uuid: %v", err)
	}
	key := &keystore.Key{
		Id:         UUID,
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		PrivateKey: privateKey,
	}

	// Encrypt key with passphrase.
	passphrase := utils.GetPassPhraseWithList("Your new key is locked with a password. Please give a password. Do not forget this password.",
		true, 0, utils.MakePasswordList(ctx))
	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if ctx.Bool(lightKDFFlag.Name) {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}
	keyjson, err := keystore.EncryptKey(key, passphrase, scryptN, scryptP)
	if err != nil {
		utils.Fatalf("Error encrypting key: %v", err)
	}

	// Store the file to disk.
	if err := os.MkdirAll(filepath.Dir(keyfilepath), 0700); err != nil {
		utils.Fatalf("Could not create directory %s", filepath.Dir(keyfilepath))
	}
	if err := os.WriteFile(keyfilepath, keyjson, 0600); err != nil {
		utils.Fatalf("Failed to write keyfile to %s: %v", keyfilepath, err)
	}

	// Output some information.
	out := outputGenerate{
		Address:        key.Address.Hex(),
		DerivationPath: derivationPath,
		Mnemonic:       mnemonicOutput,
	}
	if ctx.Bool(jsonFlag.Name) {
		mustPrintJSON(out)
	} else {
		fmt.Println("Address:", out.Address)
		if out.DerivationPath != "" {
			fmt.Println("Derivation path:", out.DerivationPath)
		}
		if out.Mnemonic != "" {
			fmt.Println("Mnemonic:", out.Mnemonic)
		}
	}
	return nil
}

func inspectKey(ctx *cli.Context) error {
	keyfilepath := ctx.Args().First()

	// Read key from file.
	keyjson, err := os.ReadFile(keyfilepath)
	if err != nil {
		utils.Fatalf("Failed to read the keyfile at '%s': %v", keyfilepath, err)
	}

	// Decrypt key with passphrase.
	passphrase := utils.GetPassPhraseWithList("", false, 0, utils.MakePasswordList(ctx))
	key, err := keystore.DecryptKey(keyjson, passphrase)
	if err != nil {
		utils.Fatalf("Error decrypting key: %v", err)
	}

	// Output all relevant information we can retrieve.
	out := outputInspect{
		Address:   key.Address.Hex(),
		PublicKey: hex.EncodeToString(crypto.FromECDSAPub(&key.PrivateKey.PublicKey)),
	}
	if ctx.Bool(privateFlag.Name) {
		out.PrivateKey = hex.EncodeToString(crypto.FromECDSA(key.PrivateKey))
	}
	if ctx.Bool(jsonFlag.Name) {
		mustPrintJSON(out)
	} else {
		fmt.Println("Address:       ", out.Address)
		fmt.Println("Public key:    ", out.PublicKey)
		if ctx.Bool(privateFlag.Name) {
			fmt.Println("Private key:   ", out.PrivateKey)
		}
	}
	return nil
}

// mustPrintJSON prints the JSON encoding of the given object and
// exits the program with an error message when the marshaling fails.
func mustPrintJSON(jsonObject interface{}) {
	str, err := json.MarshalIndent(jsonObject, "", "  ")
	if err != nil {
		utils.Fatalf("Failed to marshal JSON object: %v", err)
	}
	fmt.Println(string(str))
}
