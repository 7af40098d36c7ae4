// Package file resolves references to stored objects such as payment proof
// images.
//
// Uploading is handled by a separate service; this package only answers
// whether a referenced object exists and what its public URL is. Storage is
// implemented by LocalStorage (a directory, confined against path traversal)
// and S3Storage (AWS S3 or any S3-compatible service such as MinIO).
//
//	ok, err := file.Exists(ctx, storage, payment.ProofImage)
//	link := storage.URL(payment.ProofImage)
//
// Use NewFromConfig to build the backend selected by FILE_STORAGE_DRIVER.
package file
