// Package config loads and watches the analysis configuration file.
//
// Top-level types:
//   - Config{Input, Mining, Rules, Zhang, Report, Export, Log}: full tree
//     parsed from YAML
//   - InputConfig: path, format (csv|xlsx|auto), delimiter, sheet
//   - MiningConfig: min_support, max_len, workers for the Apriori miner
//   - RulesConfig: metric, min_threshold and extra filter expressions
//   - ZhangConfig: on_degenerate (nan|reject)
//   - ReportConfig: head size, itemset length cut, extra sort columns
//   - ExportConfig: optional csv, xlsx, prometheus and sqlite output paths
//     and webhook targets
//   - LogConfig: level and handler format for log/slog
//
// Load(path) reads the YAML file, applies defaults (min_support 0.01,
// confidence >= 0.5, head 5), then validates. Default() returns the same
// defaults for runs without a config file. Parse(path) stops before
// validation so command-line overrides can be applied first.
//
// Watch(ctx, path, override, onChange) uses fsnotify to detect changes to the
// config file and to the effective input file, and calls onChange with the
// newly parsed, overridden and validated Config. Bursts of events from one
// save are coalesced.
package config
