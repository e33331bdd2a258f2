// Package config loads commoners project configuration.
//
// A project is configured by one of commoners.config.yaml, .yml, .json or
// .toml in its root, plus the project's package.json, which supplies the
// default name and version and the list of installed dependencies.
//
//	name: My App
//	icon:
//	  default: assets/icon.png
//	  mac: assets/icon.icns
//	services:
//	  api: src/services/api.py      # shorthand for {src: ...}
//	  worker:
//	    src: src/services/worker.ts
//	    port: 4100
//	    build:
//	      default: npm run build:worker
//	      windows: npm run build:worker:win
//	plugins:
//	  - name: bluetooth
//	    preload: bluetooth/preload
//	    isSupported:
//	      web: false
//	      mobile:
//	        capacitor:
//	          name: BluetoothLe
//	          plugin: "@capacitor-community/bluetooth-le"
//
// # Malformed entries
//
// Decoding is lenient about shapes: a service or plugin entry with the wrong
// shape is recorded rather than failing the whole file, so Validate can
// report every problem in one ConfigurationErrorCollection. A file that is
// not parseable at all is reported the same way with ErrorTypeParse.
//
// RawConfig values are never modified after Load returns. Resolution into a
// ResolvedConfig lives in the resolve package.
package config
