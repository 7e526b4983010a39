// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/matrixorigin/primcoll/pkg/config"
	"github.com/spf13/cobra"
)

func genConfigCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "gen-config",
		Short: "Write the default configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return config.Encode(cmd.OutOrStdout(), config.Default())
			}
			return config.WriteFile(output, config.Default())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, stdout if empty")
	return cmd
}
