//go:build !linux

package native

// process_vm_readv only exists on Linux; leaving the handle unset makes
// Initialize fail with BindingFailure.
func platformVectorRead() VectorReadFunc {
	return nil
}
