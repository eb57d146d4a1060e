package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"v4planner/internal/planner"
)

func runDecodeCmd(cmd *cobra.Command, args []string) error {
	raw := strings.TrimPrefix(strings.TrimSpace(args[0]), "0x")
	payload, err := hex.DecodeString(raw)
	if err != nil {
		return fmt.Errorf("malformed hex payload: %w", err)
	}

	actions, err := planner.ParseCalldata(payload)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, action := range actions {
		entry := struct {
			Action string      `json:"action"`
			Params interface{} `json:"params"`
		}{
			Action: action.Kind().String(),
			Params: action,
		}
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}

	return nil
}
