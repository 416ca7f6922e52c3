package domain

// CommandBus carries play commands from channels to the pipeline.
type CommandBus interface {
	Publish(cmd Command)
	Subscribe() <-chan Command
	Close()
}
