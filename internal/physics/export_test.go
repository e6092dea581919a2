package physics

var Collide = collide
