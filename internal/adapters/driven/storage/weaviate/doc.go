// Package weaviate provides a driven.VectorIndex backed by a Weaviate server.
//
// Every ReplaceAll writes into a fresh generation class named
// "<Prefix>_<n>". Once the import succeeds the active class is switched and
// the previous generation is dropped, so readers never see a half-built
// index. On startup the highest existing generation becomes active.
//
// Objects are stored with client-supplied vectors (vectorizer "none") and
// cosine distance. Each chunk id maps to a deterministic object UUID.
package weaviate
