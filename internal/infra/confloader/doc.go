// Package confloader loads layered configuration with koanf.
//
// Sources are merged in this order, later ones winning:
//
//  1. Defaults already present in the target struct
//  2. The YAML configuration file
//  3. Environment variables (DIRMESH_ prefix, "__" between levels)
//  4. Overrides passed to LoadMap, normally command-line flags
//
// Watcher reports writes to the configuration file so that selected keys,
// such as log.level, can be applied without a restart.
package confloader
