package bot

// Comment and review texts the bot posts.
const (
	autoCloseMsg   = "This issue will be automatically closed in one week unless there is further activity."
	noAutoCloseMsg = "This issue will no longer be automatically closed."

	prGreetingMsg    = "Thanks for your contribution!\n\n"
	prWarnSignoffMsg = "* One of your commits is missing a `Signed-off-by` line; we can't accept your contribution until all of your commits have one\n"
	prWarnCommitMsg  = "* One of your commits has an improperly formatted commit message\n"
	prGuidelinesMsg  = "\nIf you are a new contributor, please see the project's contributing guidelines.\n"
)
