package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/tos-network/dumpglory/cmd/utils"
	"github.com/tos-network/dumpglory/game"
	"github.com/tos-network/dumpglory/internal/flags"
	"github.com/tos-network/dumpglory/rpcapi"
	"github.com/tos-network/dumpglory/sysaction"
	"github.com/urfave/cli/v2"
)

var (
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "Native value in wei sent with the action (SIGNUP fee)",
		Value: "0",
	}

	actionCommand = &cli.Command{
		Action:    sendAction,
		Name:      "action",
		Usage:     "Sign and apply a game action",
		ArgsUsage: "<KIND> [<payload json>]",
		Flags: flags.Merge(utils.DatabaseFlags, []cli.Flag{
			utils.KeyFileFlag,
			utils.PasswordFileFlag,
			utils.EndpointFlag,
			valueFlag,
			jsonFlag,
		}),
		Category: "GAME COMMANDS",
		Description: `
The action command signs an action with the key in --keyfile and applies it,
either to the game in the local data directory or, with --endpoint, through
a running server's dump_sendAction method.

Examples:

    dumpglory action --keyfile key.json STAKE '{"amount": 100000000000000000000}'
    dumpglory action --keyfile key.json --value 1000000000000000 SIGNUP
    dumpglory action --keyfile key.json TRANSFER '{"to": "0x...", "amount": 5e20}'`,
	}
)

// buildAction encodes the action named by kind with the optional JSON payload.
func buildAction(kind string, payload string) ([]byte, error) {
	k := sysaction.ActionKind(strings.ToUpper(strings.TrimSpace(kind)))
	known := false
	for _, candidate := range sysaction.AllKinds {
		if candidate == k {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown action %q", kind)
	}
	if payload == "" {
		return sysaction.MakeSysAction(k, nil)
	}
	if !json.Valid([]byte(payload)) {
		return nil, fmt.Errorf("invalid %s payload: not JSON", k)
	}
	data, err := sysaction.MakeSysAction(k, json.RawMessage(payload))
	if err != nil {
		return nil, err
	}
	// Check the envelope decodes before anything is signed.
	if _, err := sysaction.Decode(data); err != nil {
		return nil, err
	}
	return data, nil
}

func loadKey(ctx *cli.Context) *keystore.Key {
	keyfile := ctx.Path(utils.KeyFileFlag.Name)
	if keyfile == "" {
		utils.Fatalf("A key file is required to sign actions (--%s)", utils.KeyFileFlag.Name)
	}
	keyjson, err := os.ReadFile(keyfile)
	if err != nil {
		utils.Fatalf("Failed to read the keyfile at '%s': %v", keyfile, err)
	}
	passphrase := utils.GetPassPhraseWithList("", false, 0, utils.MakePasswordList(ctx))
	key, err := keystore.DecryptKey(keyjson, passphrase)
	if err != nil {
		utils.Fatalf("Error decrypting key: %v", err)
	}
	return key
}

func sendAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 || ctx.NArg() > 2 {
		utils.Fatalf("This command requires an action kind and an optional payload.")
	}
	data, err := buildAction(ctx.Args().Get(0), ctx.Args().Get(1))
	if err != nil {
		utils.Fatalf("%v", err)
	}
	value, err := utils.ParseAmount(ctx.String(valueFlag.Name))
	if err != nil {
		utils.Fatalf("Invalid --%s: %v", valueFlag.Name, err)
	}
	key := loadKey(ctx)

	var result *rpcapi.SendResult
	if endpoint := ctx.String(utils.EndpointFlag.Name); endpoint != "" {
		result, err = sendRemote(ctx, endpoint, key, value, data)
	} else {
		result, err = sendLocal(ctx, key, value, data)
	}
	if err != nil {
		return err
	}
	if ctx.Bool(jsonFlag.Name) {
		mustPrintJSON(result)
	} else {
		fmt.Println("Action:", result.Action)
		fmt.Println("From:", result.From.Hex())
		fmt.Println("State root:", result.Root.Hex())
		fmt.Println("Journal sequence:", uint64(result.Seq))
	}
	return nil
}

func sendRemote(ctx *cli.Context, endpoint string, key *keystore.Key, value *big.Int, data []byte) (*rpcapi.SendResult, error) {
	client, err := rpc.DialContext(ctx.Context, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer client.Close()

	var nonce hexutil.Uint64
	if err := client.CallContext(ctx.Context, &nonce, rpcapi.Namespace+"_nonce", key.Address); err != nil {
		return nil, err
	}
	signed, err := rpcapi.SignAction(key.PrivateKey, uint64(nonce), value, data)
	if err != nil {
		return nil, err
	}
	var result rpcapi.SendResult
	if err := client.CallContext(ctx.Context, &result, rpcapi.Namespace+"_sendAction", signed); err != nil {
		return nil, err
	}
	return &result, nil
}

func sendLocal(ctx *cli.Context, key *keystore.Key, value *big.Int, data []byte) (*rpcapi.SendResult, error) {
	engine, release := openEngine(ctx, false)
	defer release()

	receipt, err := engine.Apply(game.Message{
		From:       key.Address,
		Nonce:      engine.Nonce(key.Address),
		CheckNonce: true,
		Value:      value,
		Data:       data,
	})
	if err != nil {
		return nil, err
	}
	return &rpcapi.SendResult{
		Action: string(receipt.Action),
		From:   key.Address,
		Root:   receipt.Root,
		Time:   hexutil.Uint64(receipt.Time),
		Seq:    hexutil.Uint64(receipt.Seq),
	}, nil
}
