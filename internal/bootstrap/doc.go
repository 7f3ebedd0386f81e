// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bootstrap creates a repograph workspace and builds the clients a
// command needs from its configuration.
//
// # Initialization
//
// InitProject writes .repograph/project.yaml with the defaults and creates
// the embedded SQLite graph next to it:
//
//	info, err := bootstrap.InitProject(".", false, logger)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(info.ConfigPath)
//
// Calling it again keeps the existing configuration.
//
// # Clients
//
// Every command loads the configuration once and opens what it uses:
//
//	store, err := bootstrap.OpenGraph(ctx, cfg, logger)   // sqlite or neo4j
//	provider, err := bootstrap.NewProvider(cfg)            // rate limited
//	embedder, err := bootstrap.NewEmbedder(cfg)
//	vectors, err := bootstrap.OpenVectors(ctx, cfg, logger) // memory or weaviate
//
// The caller closes stores when the command finishes.
package bootstrap
