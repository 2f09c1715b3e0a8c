// Package loaders turns deck files into the ingestion contract: ordered
// pages of text plus metadata. Each sub-package handles one file format
// and the Registry dispatches on the file extension.
//
// Loaders are registered with the Registry at startup via RegisterDefaults.
package loaders
