package flash

import "github.com/smit-ai/flash-engine/body"

const nullNode int32 = -1

// Extra margin on stored leaf bounds so slow movers rarely trigger a
// reinsert.
const treeFatMargin = 4.0

type treeNode struct {
	fat    body.AABB // stored bound, extra-fattened
	tight  body.AABB // bound as reported by the body
	parent int32     // doubles as next index on the free list
	child1 int32
	child2 int32
	height int32 // -1 when free, 0 for leaves
	id     int32 // body id, leaves only
}

func (n *treeNode) isLeaf() bool {
	return n.child1 == nullNode
}

// DynamicTree is a balanced bounding-volume tree broadphase with
// refit-and-rotate updates. Leaves hold fattened body bounds and are moved
// only when a body's bound escapes its stored proxy.
type DynamicTree struct {
	nodes    []treeNode
	root     int32
	freeList int32
	stack    []int32
}

// NewDynamicTree creates a tree with room for capacity leaves
func NewDynamicTree(capacity int) *DynamicTree {
	t := &DynamicTree{
		nodes:    make([]treeNode, 0, 2*capacity),
		root:     nullNode,
		freeList: nullNode,
		stack:    make([]int32, 0, 64),
	}
	return t
}

func (t *DynamicTree) allocateNode() int32 {
	if t.freeList != nullNode {
		index := t.freeList
		t.freeList = t.nodes[index].parent
		t.nodes[index] = treeNode{parent: nullNode, child1: nullNode, child2: nullNode, id: -1}
		return index
	}
	t.nodes = append(t.nodes, treeNode{parent: nullNode, child1: nullNode, child2: nullNode, id: -1})
	return int32(len(t.nodes) - 1)
}

func (t *DynamicTree) freeNode(index int32) {
	t.nodes[index].parent = t.freeList
	t.nodes[index].height = -1
	t.freeList = index
}

// CreateProxy inserts a leaf for the body and returns its node index
func (t *DynamicTree) CreateProxy(id int32, bounds body.AABB) int32 {
	leaf := t.allocateNode()
	t.nodes[leaf].fat = bounds.Fattened(treeFatMargin)
	t.nodes[leaf].tight = bounds
	t.nodes[leaf].id = id
	t.nodes[leaf].height = 0
	t.insertLeaf(leaf)
	return leaf
}

// MoveProxy updates a leaf's bound, reinserting only if the new bound
// escaped the stored fat bound
func (t *DynamicTree) MoveProxy(proxy int32, bounds body.AABB) int32 {
	t.nodes[proxy].tight = bounds
	if t.nodes[proxy].fat.Contains(bounds) {
		return proxy
	}
	t.removeLeaf(proxy)
	t.nodes[proxy].fat = bounds.Fattened(treeFatMargin)
	t.insertLeaf(proxy)
	return proxy
}

// QueryPairs traverses the tree once per leaf and emits every pair whose
// tight bounds overlap, exactly once, in canonical order
func (t *DynamicTree) QueryPairs(out []Pair) int {
	count := 0
	for i := range t.nodes {
		leaf := &t.nodes[i]
		if leaf.height != 0 {
			continue
		}

		t.stack = t.stack[:0]
		if t.root != nullNode {
			t.stack = append(t.stack, t.root)
		}
		for len(t.stack) > 0 {
			index := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			node := &t.nodes[index]

			if !node.fat.Overlaps(leaf.fat) {
				continue
			}
			if !node.isLeaf() {
				t.stack = append(t.stack, node.child1, node.child2)
				continue
			}
			// Visit each unordered pair from its lower id only
			if node.id <= leaf.id || !node.tight.Overlaps(leaf.tight) {
				continue
			}
			if count >= len(out) {
				return count
			}
			out[count] = Pair{A: leaf.id, B: node.id}
			count++
		}
	}
	return count
}

func (t *DynamicTree) insertLeaf(leaf int32) {
	if t.root == nullNode {
		t.root = leaf
		t.nodes[leaf].parent = nullNode
		return
	}

	// Descend to the sibling with the lowest perimeter cost
	leafAABB := t.nodes[leaf].fat
	index := t.root
	for !t.nodes[index].isLeaf() {
		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2

		perimeter := t.nodes[index].fat.Perimeter()
		combined := t.nodes[index].fat.Union(leafAABB).Perimeter()

		cost := 2 * combined
		inheritance := 2 * (combined - perimeter)

		cost1 := t.descendCost(child1, leafAABB) + inheritance
		cost2 := t.descendCost(child2, leafAABB) + inheritance

		if cost < cost1 && cost < cost2 {
			break
		}
		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index
	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()
	t.nodes[newParent].parent = oldParent
	t.nodes[newParent].fat = leafAABB.Union(t.nodes[sibling].fat)
	t.nodes[newParent].height = t.nodes[sibling].height + 1
	t.nodes[newParent].child1 = sibling
	t.nodes[newParent].child2 = leaf
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	if oldParent != nullNode {
		if t.nodes[oldParent].child1 == sibling {
			t.nodes[oldParent].child1 = newParent
		} else {
			t.nodes[oldParent].child2 = newParent
		}
	} else {
		t.root = newParent
	}

	t.refitUpward(t.nodes[leaf].parent)
}

func (t *DynamicTree) descendCost(child int32, leafAABB body.AABB) float32 {
	combined := t.nodes[child].fat.Union(leafAABB).Perimeter()
	if t.nodes[child].isLeaf() {
		return combined
	}
	return combined - t.nodes[child].fat.Perimeter()
}

func (t *DynamicTree) removeLeaf(leaf int32) {
	if leaf == t.root {
		t.root = nullNode
		return
	}

	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent
	var sibling int32
	if t.nodes[parent].child1 == leaf {
		sibling = t.nodes[parent].child2
	} else {
		sibling = t.nodes[parent].child1
	}

	if grandParent != nullNode {
		if t.nodes[grandParent].child1 == parent {
			t.nodes[grandParent].child1 = sibling
		} else {
			t.nodes[grandParent].child2 = sibling
		}
		t.nodes[sibling].parent = grandParent
		t.freeNode(parent)
		t.refitUpward(grandParent)
	} else {
		t.root = sibling
		t.nodes[sibling].parent = nullNode
		t.freeNode(parent)
	}
}

// refitUpward rebalances and refits every ancestor of a changed node
func (t *DynamicTree) refitUpward(index int32) {
	for index != nullNode {
		index = t.balance(index)

		child1 := t.nodes[index].child1
		child2 := t.nodes[index].child2
		t.nodes[index].height = 1 + max(t.nodes[child1].height, t.nodes[child2].height)
		t.nodes[index].fat = t.nodes[child1].fat.Union(t.nodes[child2].fat)

		index = t.nodes[index].parent
	}
}

// balance performs an AVL rotation at index if its subtrees' heights differ
// by more than one; returns the node that took index's place
func (t *DynamicTree) balance(iA int32) int32 {
	a := &t.nodes[iA]
	if a.isLeaf() || a.height < 2 {
		return iA
	}

	iB := a.child1
	iC := a.child2
	b := &t.nodes[iB]
	c := &t.nodes[iC]
	bal := c.height - b.height

	if bal > 1 {
		return t.rotateUp(iA, iC, iB)
	}
	if bal < -1 {
		return t.rotateUp(iA, iB, iC)
	}
	return iA
}

// rotateUp promotes child iUp above iA; iKeep is iA's other child
func (t *DynamicTree) rotateUp(iA, iUp, iKeep int32) int32 {
	a := &t.nodes[iA]
	up := &t.nodes[iUp]
	iF := up.child1
	iG := up.child2

	up.child1 = iA
	up.parent = a.parent
	a.parent = iUp

	if up.parent != nullNode {
		if t.nodes[up.parent].child1 == iA {
			t.nodes[up.parent].child1 = iUp
		} else {
			t.nodes[up.parent].child2 = iUp
		}
	} else {
		t.root = iUp
	}

	f := &t.nodes[iF]
	g := &t.nodes[iG]
	keep := &t.nodes[iKeep]

	if f.height > g.height {
		up.child2 = iF
		t.replaceChild(iA, iUp, iG)
		g.parent = iA
		a.fat = keep.fat.Union(g.fat)
		up.fat = a.fat.Union(f.fat)
		a.height = 1 + max(keep.height, g.height)
		up.height = 1 + max(a.height, f.height)
	} else {
		up.child2 = iG
		t.replaceChild(iA, iUp, iF)
		f.parent = iA
		a.fat = keep.fat.Union(f.fat)
		up.fat = a.fat.Union(g.fat)
		a.height = 1 + max(keep.height, f.height)
		up.height = 1 + max(a.height, g.height)
	}

	return iUp
}

// replaceChild swaps child old of node iA for repl
func (t *DynamicTree) replaceChild(iA, old, repl int32) {
	if t.nodes[iA].child1 == old {
		t.nodes[iA].child1 = repl
	} else {
		t.nodes[iA].child2 = repl
	}
}
