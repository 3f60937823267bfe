package controller

// Step runs one simulation frame over every character. Ground detection runs
// first so jumps see this frame's contact state. Jump requests are consumed.
func (c *Controllers) Step() {
	c.DetectGrounded()
	c.ApplyMovement()
	c.ResolveLook()

	for i := range c.slots {
		c.slots[i].char.Intent.Jump = false
	}
	c.frame++
}
