// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

/*
Package visual implements garment image similarity search.

An Extractor turns a decoded image into an L2-normalized embedding. The
Index stores embeddings with their item IDs and metadata and answers
k-nearest-neighbor queries by inner product, which equals cosine
similarity for unit vectors. Service ties the two together with an
ImageSource for catalog images.

# Extractors

PixelExtractor computes a deterministic handcrafted descriptor in process:
spatial channel means, an HSV color histogram, and edge-orientation
histograms, each over the center-cropped input. RemoteExtractor posts the
image to a hosted embedding model and normalizes the returned vector.

Extract never fails; it substitutes a zero vector and counts the failure.
Callers that need to tell a failure apart (index building, upload
handlers) use ExtractStrict.

# Persistence

Index.Save writes two artifacts that are only valid together:

	vectors.gob.gz   gzip(gob{dimension, flat float32 data, sha256})
	items.json       item IDs, metadata, and the vectors checksum

Load verifies both checksums and that the two artifacts describe the same
number of entries before replacing the index contents.

# Thread Safety

Index uses a read-write lock: searches run concurrently, while inserts,
Save, and Load are exclusive.
*/
package visual
