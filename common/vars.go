package common

var (
	// PackageName identifies this project in metrics and logs.
	PackageName = "ssh-key-provisioning-backend"

	// Version is set during the build process.
	Version = "dev"
)
