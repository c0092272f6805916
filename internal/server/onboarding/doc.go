// Package onboarding holds the pure decisions taken after a session has been
// established: whether the sign-in method conflicts with the stored one,
// whether a federated profile still needs onboarding fields, and where the
// browser goes next.
package onboarding
